package data

import (
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/repo"
)

// Repositories contains all repositories
type Repositories struct {
	Message repo.MessageRepo
	Journal repo.JournalRepo
	Jobs    *JobRegistry
}

// NewRepositories creates all repositories
func NewRepositories(
	feishuClient FeishuClient,
	maxRunes int,
	journalDBPath string,
	loc *time.Location,
) (*Repositories, error) {
	journal, err := NewJournalRepo(journalDBPath)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Message: NewFeishuRepo(feishuClient, maxRunes),
		Journal: journal,
		Jobs:    NewJobRegistry(loc),
	}, nil
}
