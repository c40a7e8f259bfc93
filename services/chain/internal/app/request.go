package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"bingehouse/pkg/domain"
)

var (
	// ErrInvalidRequest marks requests rejected before the pipeline runs.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInternal marks unexpected failures inside the pipeline.
	ErrInternal = errors.New("internal error")
)

// Request is the inbound chat turn. UserID is nil for guests.
type Request struct {
	Query          string  `json:"query" validate:"required,max=1000"`
	UserID         *string `json:"userId"`
	ConversationID string  `json:"conversationId" validate:"required,max=128"`
	SessionID      string  `json:"sessionId" validate:"max=128"`
}

type ConversationStats struct {
	TurnCount   int `json:"turnCount"`
	TotalTokens int `json:"totalTokens"`
}

// Response is the assistant's reply to one turn.
type Response struct {
	Message        string                 `json:"message"`
	Movie          *domain.Movie          `json:"movie,omitempty"`
	Recommendation *domain.Recommendation `json:"recommendation,omitempty"`
	Logs           []string               `json:"logs"`
	Conversation   ConversationStats      `json:"conversation"`
}

// RequestError lists the fields that failed validation.
type RequestError struct {
	Fields []string
}

func (e *RequestError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, "; ")
}

func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// normalize trims the request in place and validates it.
func (r *Request) normalize() error {
	r.Query = strings.TrimSpace(r.Query)
	r.ConversationID = strings.TrimSpace(r.ConversationID)
	r.SessionID = strings.TrimSpace(r.SessionID)
	if r.UserID != nil {
		id := strings.TrimSpace(*r.UserID)
		if id == "" {
			r.UserID = nil
		} else {
			r.UserID = &id
		}
	}

	err := requestValidator().Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestError{Fields: []string{err.Error()}}
	}
	out := &RequestError{}
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			out.Fields = append(out.Fields, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			out.Fields = append(out.Fields, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			out.Fields = append(out.Fields, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return out
}

func (r Request) userID() string {
	if r.UserID == nil {
		return ""
	}
	return *r.UserID
}
