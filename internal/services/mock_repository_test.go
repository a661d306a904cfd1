package services

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/brightclass/mastery-service/internal/models"
	"github.com/brightclass/mastery-service/internal/repositories"
)

// mockRepository is an in-memory Repository for service tests. Get methods
// return copies so services mutate state only through Create/Update, the same
// contract the real database gives them.
type mockRepository struct {
	problems    map[uint]*models.Problem
	assignments map[uint]*models.Assignment
	answers     map[uint]*models.StudentAnswer
	courses     map[uint]*models.Course
	knowledge   map[uint]*models.KnowledgePoint
	links       map[uint]*models.CourseKnowledge
	progress    map[string]*models.LearningProgress
	users       map[string]*models.User

	nextAnswerID    uint
	nextKnowledgeID uint
	nextLinkID      uint
	nextProgressID  uint

	// answerLockRequested records whether the last GetByStudentAndProblem
	// call asked for a row lock.
	answerLockRequested bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		problems:    make(map[uint]*models.Problem),
		assignments: make(map[uint]*models.Assignment),
		answers:     make(map[uint]*models.StudentAnswer),
		courses:     make(map[uint]*models.Course),
		knowledge:   make(map[uint]*models.KnowledgePoint),
		links:       make(map[uint]*models.CourseKnowledge),
		progress:    make(map[string]*models.LearningProgress),
		users:       make(map[string]*models.User),
	}
}

func progressKey(studentID string, knowledgeID uint) string {
	return fmt.Sprintf("%s:%d", studentID, knowledgeID)
}

func (m *mockRepository) Problem() repositories.ProblemRepository       { return &mockProblemRepo{m} }
func (m *mockRepository) Assignment() repositories.AssignmentRepository { return &mockAssignmentRepo{m} }
func (m *mockRepository) Answer() repositories.AnswerRepository         { return &mockAnswerRepo{m} }
func (m *mockRepository) Course() repositories.CourseRepository         { return &mockCourseRepo{m} }
func (m *mockRepository) Knowledge() repositories.KnowledgeRepository   { return &mockKnowledgeRepo{m} }
func (m *mockRepository) CourseKnowledge() repositories.CourseKnowledgeRepository {
	return &mockCourseKnowledgeRepo{m}
}
func (m *mockRepository) Progress() repositories.ProgressRepository { return &mockProgressRepo{m} }
func (m *mockRepository) User() repositories.UserRepository         { return &mockUserRepo{m} }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repo repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== PROBLEMS =====

type mockProblemRepo struct{ m *mockRepository }

func (r *mockProblemRepo) Create(ctx context.Context, tx *gorm.DB, problem *models.Problem) error {
	stored := *problem
	r.m.problems[problem.ID] = &stored
	return nil
}

func (r *mockProblemRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Problem, error) {
	problem, ok := r.m.problems[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *problem
	return &copied, nil
}

func (r *mockProblemRepo) GetByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.Problem, error) {
	var problems []*models.Problem
	for _, problem := range r.m.problems {
		if problem.AssignmentID == assignmentID {
			copied := *problem
			problems = append(problems, &copied)
		}
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].Sequence < problems[j].Sequence })
	return problems, nil
}

func (r *mockProblemRepo) Update(ctx context.Context, tx *gorm.DB, problem *models.Problem) error {
	stored := *problem
	r.m.problems[problem.ID] = &stored
	return nil
}

func (r *mockProblemRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.m.problems, id)
	return nil
}

func (r *mockProblemRepo) CountByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) (int64, error) {
	var count int64
	for _, problem := range r.m.problems {
		if problem.AssignmentID == assignmentID {
			count++
		}
	}
	return count, nil
}

// ===== ASSIGNMENTS =====

type mockAssignmentRepo struct{ m *mockRepository }

func (r *mockAssignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	stored := *assignment
	r.m.assignments[assignment.ID] = &stored
	return nil
}

func (r *mockAssignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	assignment, ok := r.m.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *assignment
	return &copied, nil
}

func (r *mockAssignmentRepo) GetByIDWithProblems(ctx context.Context, tx *gorm.DB, id uint) (*models.Assignment, error) {
	assignment, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	problems, _ := (&mockProblemRepo{r.m}).GetByAssignment(ctx, tx, id)
	for _, problem := range problems {
		assignment.Problems = append(assignment.Problems, *problem)
	}
	return assignment, nil
}

func (r *mockAssignmentRepo) Update(ctx context.Context, tx *gorm.DB, assignment *models.Assignment) error {
	stored := *assignment
	r.m.assignments[assignment.ID] = &stored
	return nil
}

// ===== ANSWERS =====

type mockAnswerRepo struct{ m *mockRepository }

func (r *mockAnswerRepo) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	r.m.nextAnswerID++
	answer.ID = r.m.nextAnswerID
	stored := *answer
	r.m.answers[answer.ID] = &stored
	return nil
}

func (r *mockAnswerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error) {
	answer, ok := r.m.answers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *answer
	return &copied, nil
}

func (r *mockAnswerRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *mockAnswerRepo) GetByStudentAndProblem(ctx context.Context, tx *gorm.DB, studentID string, problemID uint, forUpdate bool) (*models.StudentAnswer, error) {
	r.m.answerLockRequested = forUpdate
	for _, answer := range r.m.answers {
		if answer.StudentID == studentID && answer.ProblemID == problemID {
			copied := *answer
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockAnswerRepo) GetByStudentAndAssignment(ctx context.Context, tx *gorm.DB, studentID string, assignmentID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	for _, answer := range r.m.answers {
		if answer.StudentID == studentID && answer.AssignmentID == assignmentID {
			copied := *answer
			answers = append(answers, &copied)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}

func (r *mockAnswerRepo) GetByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint, filters repositories.AnswerFilters) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	for _, answer := range r.m.answers {
		if answer.AssignmentID != assignmentID {
			continue
		}
		if filters.Status != nil && answer.Status != *filters.Status {
			continue
		}
		if filters.GradingStatus != nil && answer.GradingStatus != *filters.GradingStatus {
			continue
		}
		copied := *answer
		answers = append(answers, &copied)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}

func (r *mockAnswerRepo) GetByProblem(ctx context.Context, tx *gorm.DB, problemID uint) ([]*models.StudentAnswer, error) {
	var answers []*models.StudentAnswer
	for _, answer := range r.m.answers {
		if answer.ProblemID == problemID {
			copied := *answer
			answers = append(answers, &copied)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}

func (r *mockAnswerRepo) Update(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	if _, ok := r.m.answers[answer.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *answer
	r.m.answers[answer.ID] = &stored
	return nil
}

func (r *mockAnswerRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.m.answers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.answers, id)
	return nil
}

func (r *mockAnswerRepo) GetGradingStats(ctx context.Context, tx *gorm.DB, assignmentID uint) (*repositories.GradingStats, error) {
	stats := &repositories.GradingStats{}
	var scoreSum float64
	var scored int
	for _, answer := range r.m.answers {
		if answer.AssignmentID != assignmentID {
			continue
		}
		stats.TotalAnswers++
		switch answer.GradingStatus {
		case models.GradingPending:
			stats.PendingAnswers++
		default:
			stats.GradedAnswers++
		}
		if answer.AutoGraded {
			stats.AutoGraded++
		}
		if answer.ManualScore != nil {
			stats.ManualGraded++
		}
		if final := answer.FinalScore(); final != nil {
			scoreSum += *final
			scored++
		}
	}
	if scored > 0 {
		stats.AverageScore = scoreSum / float64(scored)
	}
	return stats, nil
}

// ===== COURSES AND KNOWLEDGE =====

type mockCourseRepo struct{ m *mockRepository }

func (r *mockCourseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	course, ok := r.m.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *course
	return &copied, nil
}

type mockKnowledgeRepo struct{ m *mockRepository }

func (r *mockKnowledgeRepo) Create(ctx context.Context, tx *gorm.DB, knowledge *models.KnowledgePoint) error {
	if knowledge.ID == 0 {
		// Start above any seeded IDs
		for id := range r.m.knowledge {
			if id > r.m.nextKnowledgeID {
				r.m.nextKnowledgeID = id
			}
		}
		r.m.nextKnowledgeID++
		knowledge.ID = r.m.nextKnowledgeID
	}
	stored := *knowledge
	r.m.knowledge[knowledge.ID] = &stored
	return nil
}

func (r *mockKnowledgeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.KnowledgePoint, error) {
	knowledge, ok := r.m.knowledge[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *knowledge
	return &copied, nil
}

func (r *mockKnowledgeRepo) Update(ctx context.Context, tx *gorm.DB, knowledge *models.KnowledgePoint) error {
	stored := *knowledge
	r.m.knowledge[knowledge.ID] = &stored
	return nil
}

func (r *mockKnowledgeRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.m.knowledge, id)
	return nil
}

type mockCourseKnowledgeRepo struct{ m *mockRepository }

func (r *mockCourseKnowledgeRepo) Create(ctx context.Context, tx *gorm.DB, link *models.CourseKnowledge) error {
	r.m.nextLinkID++
	link.ID = r.m.nextLinkID
	stored := *link
	r.m.links[link.ID] = &stored
	return nil
}

func (r *mockCourseKnowledgeRepo) GetByCourseOrdered(ctx context.Context, tx *gorm.DB, courseID uint, forUpdate bool) ([]*models.CourseKnowledge, error) {
	var links []*models.CourseKnowledge
	for _, link := range r.m.links {
		if link.CourseID == courseID {
			copied := *link
			links = append(links, &copied)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Sequence < links[j].Sequence })
	return links, nil
}

func (r *mockCourseKnowledgeRepo) GetByCourseAndKnowledge(ctx context.Context, tx *gorm.DB, courseID, knowledgeID uint) (*models.CourseKnowledge, error) {
	for _, link := range r.m.links {
		if link.CourseID == courseID && link.KnowledgeID == knowledgeID {
			copied := *link
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockCourseKnowledgeRepo) UpdateSequence(ctx context.Context, tx *gorm.DB, id uint, sequence int) error {
	link, ok := r.m.links[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	link.Sequence = sequence
	return nil
}

func (r *mockCourseKnowledgeRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if _, ok := r.m.links[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.links, id)
	return nil
}

func (r *mockCourseKnowledgeRepo) DeleteByCourseAndKnowledge(ctx context.Context, tx *gorm.DB, courseID uint, knowledgeIDs []uint) (int64, error) {
	targets := make(map[uint]bool, len(knowledgeIDs))
	for _, id := range knowledgeIDs {
		targets[id] = true
	}
	var removed int64
	for id, link := range r.m.links {
		if link.CourseID == courseID && targets[link.KnowledgeID] {
			delete(r.m.links, id)
			removed++
		}
	}
	return removed, nil
}

func (r *mockCourseKnowledgeRepo) CountByCourse(ctx context.Context, tx *gorm.DB, courseID uint) (int64, error) {
	var count int64
	for _, link := range r.m.links {
		if link.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (r *mockCourseKnowledgeRepo) CountByKnowledge(ctx context.Context, tx *gorm.DB, knowledgeID uint) (int64, error) {
	var count int64
	for _, link := range r.m.links {
		if link.KnowledgeID == knowledgeID {
			count++
		}
	}
	return count, nil
}

// ===== PROGRESS =====

type mockProgressRepo struct{ m *mockRepository }

func (r *mockProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *models.LearningProgress) error {
	r.m.nextProgressID++
	progress.ID = r.m.nextProgressID
	stored := *progress
	r.m.progress[progressKey(progress.StudentID, progress.KnowledgeID)] = &stored
	return nil
}

func (r *mockProgressRepo) GetByStudentAndKnowledge(ctx context.Context, tx *gorm.DB, studentID string, knowledgeID uint) (*models.LearningProgress, error) {
	progress, ok := r.m.progress[progressKey(studentID, knowledgeID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *progress
	return &copied, nil
}

func (r *mockProgressRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ProgressFilters) ([]*models.LearningProgress, error) {
	var progresses []*models.LearningProgress
	for _, progress := range r.m.progress {
		if progress.StudentID != studentID {
			continue
		}
		if filters.Status != nil && progress.LearningStatus != *filters.Status {
			continue
		}
		copied := *progress
		progresses = append(progresses, &copied)
	}
	sort.Slice(progresses, func(i, j int) bool { return progresses[i].KnowledgeID < progresses[j].KnowledgeID })
	return progresses, nil
}

func (r *mockProgressRepo) Update(ctx context.Context, tx *gorm.DB, progress *models.LearningProgress) error {
	key := progressKey(progress.StudentID, progress.KnowledgeID)
	if _, ok := r.m.progress[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *progress
	r.m.progress[key] = &stored
	return nil
}

// ===== USERS =====

type mockUserRepo struct{ m *mockRepository }

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}
