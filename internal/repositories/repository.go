package repositories

import (
	"context"
)

// Repository aggregates entity repositories behind one handle so services
// depend on a single interface and transactions can span entities.
type Repository interface {
	Problem() ProblemRepository
	Assignment() AssignmentRepository
	Answer() AnswerRepository
	Course() CourseRepository
	Knowledge() KnowledgeRepository
	CourseKnowledge() CourseKnowledgeRepository
	Progress() ProgressRepository
	User() UserRepository

	// WithTransaction runs fn against a Repository whose database calls
	// share one transaction. Returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the Repository lifecycle for the process.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
