package store

import "context"

// ProblemDifficulty is the difficulty band of a practice problem.
type ProblemDifficulty string

const (
	ProblemEasy   ProblemDifficulty = "EASY"
	ProblemMedium ProblemDifficulty = "MEDIUM"
	ProblemHard   ProblemDifficulty = "HARD"
)

// Problem is the object representing a practice problem. Content authoring is
// out of scope; the engine only needs the identity and difficulty.
type Problem struct {
	ID         int32
	UID        string
	Title      string
	Difficulty ProblemDifficulty
	CreatedTs  int64
}

// FindProblem is the find condition for problem.
type FindProblem struct {
	ID         *int32
	UID        *string
	Difficulty *ProblemDifficulty

	Limit  *int
	Offset *int
}

// CreateProblem creates a new problem.
func (s *Store) CreateProblem(ctx context.Context, create *Problem) (*Problem, error) {
	return s.driver.CreateProblem(ctx, create)
}

// ListProblems lists problems with filter.
func (s *Store) ListProblems(ctx context.Context, find *FindProblem) ([]*Problem, error) {
	return s.driver.ListProblems(ctx, find)
}

// GetProblem gets a single problem, or nil if none matches.
func (s *Store) GetProblem(ctx context.Context, find *FindProblem) (*Problem, error) {
	list, err := s.driver.ListProblems(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
