// Package app ties the domain services together.
package app

import (
	"github.com/portal-umkm/submission-service/internal/app/services/submissions"
	"github.com/portal-umkm/submission-service/internal/app/storage"
	"github.com/portal-umkm/submission-service/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Submissions storage.SubmissionStore
}

// Application holds the wired domain services.
type Application struct {
	log *logging.Logger

	Submissions *submissions.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}
	if stores.Submissions == nil {
		stores.Submissions = storage.NewMemory()
	}

	return &Application{
		log:         log,
		Submissions: submissions.New(stores.Submissions, log),
	}, nil
}
