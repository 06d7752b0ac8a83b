package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/jo-hoe/cropdoctor/internal/common"
	"github.com/jo-hoe/cropdoctor/internal/core"
	"github.com/jo-hoe/cropdoctor/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	imageFormField      = "image"
	defaultHistoryLimit = 20
	ProbePath           = "/probe"
	PredictPath         = "/predict"
	PredictionsPath     = "/api/predictions"
	MetricsPath         = "/metrics"
)

// ErrorResponse is the body of every failed API request
type ErrorResponse struct {
	Error string `json:"error"`
}

type listPredictionsRequest struct {
	Limit int `query:"limit" validate:"min=1,max=100"`
}

type APIService struct {
	coreService *core.CoreService
	metrics     *metrics.PredictionMetrics
}

func NewAPIService(coreService *core.CoreService, predictionMetrics *metrics.PredictionMetrics) *APIService {
	return &APIService{
		coreService: coreService,
		metrics:     predictionMetrics,
	}
}

func (service *APIService) SetRoutes(e *echo.Echo) {
	if e.Validator == nil {
		e.Validator = &common.GenericEchoValidator{}
	}

	e.GET(ProbePath, service.probeHandler)
	e.POST(PredictPath, service.predictHandler)
	e.GET(PredictionsPath, service.listPredictionsHandler)
	e.GET(MetricsPath, echo.WrapHandler(promhttp.HandlerFor(service.metrics.Registry(), promhttp.HandlerOpts{})))
}

func (service *APIService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func (service *APIService) predictHandler(ctx echo.Context) error {
	start := time.Now()

	filename, image, err := readImagePart(ctx.Request())
	if err != nil {
		// Body limit violations keep echo's status
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return err
		}
		return service.writePredictError(ctx, err, filename)
	}

	prediction, err := service.coreService.Predict(ctx.Request().Context(), filename, image)
	if err != nil {
		return service.writePredictError(ctx, err, filename)
	}

	service.metrics.RecordPrediction(prediction.Prediction, len(image), time.Since(start))
	slog.Info("predictHandler: prediction served",
		"filename", filename,
		"prediction", prediction.Prediction,
		"image_url", prediction.ImageURL,
		"size_bytes", len(image))
	return ctx.JSON(http.StatusOK, prediction)
}

// readImagePart streams the multipart body and returns the first part named
// image that carries a filename parameter. A part without that parameter is a
// plain form field and does not count as an upload; filename="" does, and is
// reported as an empty selection by the caller.
func readImagePart(req *http.Request) (string, []byte, error) {
	reader, err := req.MultipartReader()
	if err != nil {
		slog.Warn("predictHandler: request is not multipart", "status", http.StatusBadRequest, "error", err)
		return "", nil, core.ErrMissingFile
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return "", nil, core.ErrMissingFile
		}
		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return "", nil, err
			}
			slog.Warn("predictHandler: malformed multipart body", "status", http.StatusBadRequest, "error", err)
			return "", nil, core.ErrMissingFile
		}

		filename, isFile := partFilename(part)
		if part.FormName() != imageFormField || !isFile {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return filename, nil, err
			}
			return filename, nil, &core.PredictError{Kind: core.KindStorageFailure, Message: err.Error(), Err: err}
		}
		return filename, data, nil
	}
}

// partFilename returns the raw filename parameter of the part and whether it
// was present at all. Unlike Part.FileName the directory components are kept
// so sanitizing sees what the client sent.
func partFilename(part *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(part.Header.Get(echo.HeaderContentDisposition))
	if err != nil {
		return "", false
	}
	filename, ok := params["filename"]
	return filename, ok
}

// writePredictError maps err to its status code and reports its message as JSON.
// Errors of unknown kind are reported as 500.
func (service *APIService) writePredictError(ctx echo.Context, err error, filename string) error {
	status := http.StatusInternalServerError
	kind := "unknown"

	var predictErr *core.PredictError
	if errors.As(err, &predictErr) {
		status = predictErr.Kind.StatusCode()
		kind = predictErr.Kind.String()
	}
	service.metrics.RecordError(kind)

	if status >= http.StatusInternalServerError {
		slog.Error("predictHandler: failed to process upload",
			"status", status, "kind", kind, "error", err, "filename", filename)
	} else {
		slog.Warn("predictHandler: rejected upload",
			"status", status, "kind", kind, "error", err, "filename", filename)
	}
	return ctx.JSON(status, ErrorResponse{Error: err.Error()})
}

func (service *APIService) listPredictionsHandler(ctx echo.Context) error {
	request := listPredictionsRequest{Limit: defaultHistoryLimit}
	if err := ctx.Bind(&request); err != nil {
		slog.Warn("listPredictionsHandler: invalid query", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer"})
	}
	if err := ctx.Validate(&request); err != nil {
		slog.Warn("listPredictionsHandler: invalid limit", "status", http.StatusBadRequest, "limit", request.Limit)
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be between 1 and 100"})
	}

	records, err := service.coreService.LatestPredictions(ctx.Request().Context(), request.Limit)
	if err != nil {
		slog.Error("listPredictionsHandler: failed to list predictions",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list predictions"})
	}

	// Prevent caching so the latest predictions are always shown
	ctx.Response().Header().Set("Cache-Control", "no-store")
	return ctx.JSON(http.StatusOK, records)
}

// HTTPErrorHandler reports framework errors such as unknown routes in the same
// {"error": ...} shape as the API handlers.
func HTTPErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		message = fmt.Sprint(httpErr.Message)
	}

	var writeErr error
	if ctx.Request().Method == http.MethodHead {
		writeErr = ctx.NoContent(status)
	} else {
		writeErr = ctx.JSON(status, ErrorResponse{Error: message})
	}
	if writeErr != nil {
		slog.Error("HTTPErrorHandler: failed to write error response", "status", status, "error", writeErr)
	}
}
