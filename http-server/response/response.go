// Package response формат JSON-ответов API. Успешный ответ это сам объект,
// ошибка {"success": false, "error_code": ..., "message": ..., "message_km": ...}.
package response

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"mne-tracker/internal/rules"
	"mne-tracker/internal/service/contract"
	"mne-tracker/internal/storage"
)

const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

type ErrorBody struct {
	Success   bool              `json:"success"`
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	MessageKM string            `json:"message_km"`
	Fields    map[string]string `json:"fields,omitempty"`
	Details   any               `json:"details,omitempty"`
}

var validate = newValidator()

// имена полей в ошибках берутся из json-тегов
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// IDParam читает положительный числовой параметр пути.
// При ошибке ответ уже записан.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(w, r, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func OK(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, data)
}

func Created(w http.ResponseWriter, r *http.Request, data any) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, data)
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message, messageKM string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{
		ErrorCode: code,
		Message:   message,
		MessageKM: messageKM,
	})
}

func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusBadRequest, CodeBadRequest, message, "សំណើមិនត្រឹមត្រូវ")
}

func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Error(w, r, http.StatusNotFound, CodeNotFound, message, "រកមិនឃើញ")
}

func Unauthorized(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusUnauthorized, CodeUnauthorized, "Authentication required", "តម្រូវឱ្យផ្ទៀងផ្ទាត់អត្តសញ្ញាណ")
}

func Forbidden(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusForbidden, CodeForbidden, "Insufficient permissions", "គ្មានសិទ្ធិគ្រប់គ្រាន់")
}

// Decode читает JSON тело и проверяет теги validate.
// При ошибке ответ уже записан и возвращается false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if errors.Is(err, io.EOF) {
			BadRequest(w, r, "Request body is empty")
			return false
		}
		if errors.Is(err, rules.ErrInvalidCondition) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorBody{
				ErrorCode: CodeValidation,
				Message:   "condition " + err.Error(),
				MessageKM: "លក្ខខណ្ឌមិនត្រឹមត្រូវ",
				Fields:    map[string]string{"condition": err.Error()},
			})
			return false
		}
		BadRequest(w, r, "Invalid JSON body")
		return false
	}

	return Validate(w, r, dst)
}

func Validate(w http.ResponseWriter, r *http.Request, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		BadRequest(w, r, err.Error())
		return false
	}

	fields := make(map[string]string, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
		msgs = append(msgs, fe.Field()+" "+fields[fe.Field()])
	}

	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorBody{
		ErrorCode: CodeValidation,
		Message:   strings.Join(msgs, "; "),
		MessageKM: "ទិន្នន័យមិនត្រឹមត្រូវ",
		Fields:    fields,
	})
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

type domainError struct {
	err       error
	status    int
	code      string
	messageKM string
}

var domainErrors = []domainError{
	{storage.ErrNotFound, http.StatusNotFound, CodeNotFound, "រកមិនឃើញ"},
	{storage.ErrConflict, http.StatusConflict, CodeConflict, "ទិន្នន័យមានរួចហើយ"},
	{contract.ErrNotDraft, http.StatusConflict, CodeConflict, "កិច្ចសន្យាមិនមែនជាសេចក្តីព្រាងទេ"},
	{contract.ErrNotSigned, http.StatusConflict, CodeConflict, "កិច្ចសន្យាមិនទាន់បានចុះហត្ថលេខា"},
	{contract.ErrNoIndicators, http.StatusConflict, CodeConflict, "កិច្ចសន្យាមិនមានសូចនាករ"},
	{contract.ErrInvalidTransition, http.StatusConflict, CodeConflict, "ការផ្លាស់ប្តូរស្ថានភាពមិនត្រឹមត្រូវ"},
	{contract.ErrIndicatorNotInScope, http.StatusUnprocessableEntity, CodeValidation, "សូចនាករមិនមែនជាផ្នែកនៃកិច្ចសន្យា"},
	{contract.ErrInvalidDates, http.StatusUnprocessableEntity, CodeValidation, "កាលបរិច្ឆេទមិនត្រឹមត្រូវ"},
}

// FromError переводит доменные ошибки сервисов в HTTP-ответ.
// Всё неизвестное логируется и отдаётся как 500 без деталей.
func FromError(log *slog.Logger, w http.ResponseWriter, r *http.Request, op string, err error) {
	var rejection *contract.RejectionError
	if errors.As(err, &rejection) {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, ErrorBody{
			ErrorCode: CodeValidation,
			Message:   "Custom target rejected",
			MessageKM: "គោលដៅផ្ទាល់ខ្លួនត្រូវបានបដិសេធ",
			Details:   rejection.Rejected,
		})
		return
	}

	var verr *rules.ValidationError
	if errors.As(err, &verr) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorBody{
			ErrorCode: CodeValidation,
			Message:   verr.Error(),
			MessageKM: "ទិន្នន័យមិនត្រឹមត្រូវ",
			Fields:    map[string]string{verr.Field: verr.Reason},
		})
		return
	}

	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			Error(w, r, de.status, de.code, de.err.Error(), de.messageKM)
			return
		}
	}

	log.Error("request failed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	Error(w, r, http.StatusInternalServerError, CodeInternal, "Internal server error", "កំហុសម៉ាស៊ីនមេ")
}
