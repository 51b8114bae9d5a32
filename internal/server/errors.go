package server

import (
	"errors"
	"net/http"

	"github.com/hyperjump/gunggeum/internal/answer"
	"github.com/hyperjump/gunggeum/internal/guard"
	"github.com/hyperjump/gunggeum/internal/llm"
	"github.com/hyperjump/gunggeum/internal/ratelimit"
	"github.com/hyperjump/gunggeum/internal/search"
)

const (
	msgEmptyQuery    = "검색어를 입력해주세요."
	msgInvalidQuery  = "허용되지 않는 검색어예요."
	msgProfane       = "바르고 고운 말을 사용해주세요."
	msgQuota         = "오늘 검색 횟수를 모두 사용했어요. 내일 다시 만나요!"
	msgDuplicate     = "같은 내용을 너무 자주 검색하고 있어요. 잠시 후 다시 시도해주세요."
	msgTooMany       = "요청이 너무 많아요. 잠시 후 다시 시도해 주세요."
	msgNotFound      = "관련 정보를 찾지 못했습니다."
	msgSummaryFailed = "요약 실패"
	msgBadRequest    = "잘못된 요청입니다."
	msgTooLarge      = "요청이 너무 커요."
	msgNeedQuestion  = "질문과 문맥(context)이 필요합니다."
	msgAnswerFailed  = "질문 응답 중 오류가 발생했습니다."
	msgForbidden     = "접근 권한이 없습니다."
	msgNoLog         = "해당 날짜의 로그가 없습니다."
	msgLogFailed     = "로그를 읽는 중 오류가 발생했습니다."
)

// searchStatus maps a search error to the HTTP status and user message.
func searchStatus(err error) (int, string) {
	var (
		rej *guard.RejectError
		le  *ratelimit.LimitError
	)
	switch {
	case errors.As(err, &rej):
		switch {
		case rej.Blocked:
			return http.StatusForbidden, msgProfane
		case rej.Reason == guard.ReasonEmpty:
			return http.StatusBadRequest, msgEmptyQuery
		default:
			return http.StatusBadRequest, msgInvalidQuery
		}
	case errors.As(err, &le):
		switch le.Kind {
		case ratelimit.KindQuota:
			return http.StatusTooManyRequests, msgQuota
		case ratelimit.KindDuplicate:
			return http.StatusTooManyRequests, msgDuplicate
		default:
			return http.StatusTooManyRequests, msgTooMany
		}
	case errors.Is(err, search.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case llm.IsRateLimited(err):
		return http.StatusTooManyRequests, msgTooMany
	default:
		return http.StatusInternalServerError, msgSummaryFailed
	}
}

// questionStatus maps a follow-up question error to the HTTP status and user message.
func questionStatus(err error) (int, string) {
	if errors.Is(err, answer.ErrMissingInput) {
		return http.StatusBadRequest, msgNeedQuestion
	}
	return http.StatusInternalServerError, msgAnswerFailed
}
