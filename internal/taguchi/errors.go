package taguchi

import "errors"

var (
	ErrNoTasks           = errors.New("taguchi: no tasks supplied")
	ErrInvalidLevelCount = errors.New("taguchi: level count must be 3 or 5")
	ErrDuplicateTask     = errors.New("taguchi: duplicate task code")
)
