package services

import (
	"errors"
	"fmt"

	"institute-reviews/repositories"
)

// 서비스 계층이 노출하는 에러 종류. 핸들러는 errors.Is 로 HTTP 상태 코드를 고른다.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// classifyStoreErr maps store sentinels to service error kinds, keeping the cause in the chain.
func classifyStoreErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, repositories.ErrDuplicate):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	case errors.Is(err, repositories.ErrUnavailable):
		return fmt.Errorf("%s: %w: %w", what, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
