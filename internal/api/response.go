package api

import (
	"errors"
	"strconv"
	"strings"

	apperrors "github.com/ES-COCO/es-coco/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func SuccessResponse(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

func ErrorResponse(message string) Response {
	return Response{Success: false, Message: message}
}

var validate = validator.New()

// ValidateRequest checks a parsed request against its validate tags.
func ValidateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.New(apperrors.CodeInvalidArg, "invalid "+strings.ToLower(fe.Field())+": failed "+fe.Tag())
		}
		return apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid request")
	}
	return nil
}

// parseIDs parses a comma separated id list such as "1,2,3".
func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, apperrors.New(apperrors.CodeInvalidArg, "invalid id "+strconv.Quote(part))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func paramID(ctx *fiber.Ctx) (int64, error) {
	id, err := ctx.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.CodeInvalidArg, "invalid id "+strconv.Quote(ctx.Params("id")))
	}
	return int64(id), nil
}

// statusFor maps an application error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case apperrors.CodeInvalidArg:
		return fiber.StatusBadRequest
	case apperrors.CodeNotFound:
		return fiber.StatusNotFound
	case apperrors.CodeExternal:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors as JSON envelopes.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var status int
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else {
			status = statusFor(apperrors.CodeOf(err))
		}

		message := err.Error()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && status < fiber.StatusInternalServerError {
			message = appErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()),
				zap.Int("status", status),
				zap.Error(err))
		}
		return ctx.Status(status).JSON(ErrorResponse(message))
	}
}
