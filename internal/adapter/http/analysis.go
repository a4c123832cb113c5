package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/river-gauge-etl/internal/adapter/excel"
	"github.com/couchcryptid/river-gauge-etl/internal/domain"
	"github.com/couchcryptid/river-gauge-etl/internal/observability"
	"github.com/couchcryptid/river-gauge-etl/internal/pipeline"
)

const (
	formatJSON = "json"
	formatXLSX = "xlsx"

	uploadField = "files"
)

// analysisQuery holds the query parameters of POST /v1/analyses.
type analysisQuery struct {
	Strategy string `query:"strategy" validate:"omitempty,oneof=mask mean monthly"`
	Columns  string `query:"columns" validate:"omitempty,oneof=at_least exact"`
	Format   string `query:"format" validate:"omitempty,oneof=json xlsx"`
	Window   int    `query:"low_flow_window" validate:"omitempty,min=1,max=366"`
	Publish  bool   `query:"publish"`
}

type analysisResponse struct {
	RunID     string                 `json:"run_id"`
	Reports   []domain.StationReport `json:"reports"`
	Failures  []failureResponse      `json:"failures"`
	Published bool                   `json:"published"`
}

type failureResponse struct {
	Station string `json:"station"`
	Source  string `json:"source"`
	Reason  string `json:"reason"`
	Error   string `json:"error"`
}

type errorResponse struct {
	Error    string            `json:"error"`
	Failures []failureResponse `json:"failures,omitempty"`
}

type analysisHandler struct {
	runner   BatchRunner
	opts     Options
	validate *validator.Validate
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func newAnalysisHandler(runner BatchRunner, opts Options, metrics *observability.Metrics, logger *slog.Logger) *analysisHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("query")
	})
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	return &analysisHandler{
		runner:   runner,
		opts:     opts,
		validate: v,
		metrics:  metrics,
		logger:   logger.With("component", "analysis_handler"),
	}
}

func (h *analysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", middleware.GetReqID(r.Context()))

	q, err := h.parseQuery(r)
	if err != nil {
		h.reject(w, r, http.StatusBadRequest, err.Error())
		return
	}

	inputs, status, err := h.readUploads(w, r)
	if err != nil {
		h.reject(w, r, status, err.Error())
		return
	}

	res, err := h.runner.Analyze(r.Context(), inputs, h.options(q))
	if err != nil {
		logger.Error("analysis failed", "error", err)
		h.fail(w, r, http.StatusInternalServerError, "analysis failed")
		return
	}

	failures := toFailures(res.Failures)
	if len(res.Reports) == 0 {
		h.metrics.Uploads.WithLabelValues("rejected").Inc()
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{Error: "no station file could be analyzed", Failures: failures})
		return
	}

	published := false
	switch {
	case q.Publish && len(h.opts.Publishers) == 0:
		logger.Warn("publish requested but no publisher is configured", "run_id", res.RunID)
	case q.Publish:
		if err := h.runner.DeliverTo(r.Context(), res.Reports, h.opts.Publishers); err != nil {
			logger.Error("publish failed", "run_id", res.RunID, "error", err)
			h.fail(w, r, http.StatusBadGateway, "analysis succeeded but publishing failed")
			return
		}
		published = true
	}

	h.metrics.Uploads.WithLabelValues("ok").Inc()
	logger.Info("upload analyzed", "run_id", res.RunID, "reports", len(res.Reports), "failures", len(failures))

	if q.Format == formatXLSX {
		w.Header().Set("Content-Type", excel.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="analysis_%s.xlsx"`, res.RunID))
		if err := excel.Write(w, res.Reports); err != nil {
			logger.Error("write workbook failed", "run_id", res.RunID, "error", err)
		}
		return
	}

	render.JSON(w, r, analysisResponse{
		RunID:     res.RunID,
		Reports:   res.Reports,
		Failures:  failures,
		Published: published,
	})
}

func (h *analysisHandler) parseQuery(r *http.Request) (analysisQuery, error) {
	v := r.URL.Query()
	q := analysisQuery{
		Strategy: strings.ToLower(v.Get("strategy")),
		Columns:  strings.ToLower(v.Get("columns")),
		Format:   strings.ToLower(v.Get("format")),
	}
	if s := v.Get("low_flow_window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, errors.New("low_flow_window must be an integer")
		}
		q.Window = n
	}
	if s := v.Get("publish"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, errors.New("publish must be a boolean")
		}
		q.Publish = b
	}

	if err := h.validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fe.Field()
			}
			return q, fmt.Errorf("invalid query parameters: %s", strings.Join(fields, ", "))
		}
		return q, err
	}
	return q, nil
}

func (h *analysisHandler) options(q analysisQuery) domain.Options {
	opts := h.opts.Defaults
	if q.Strategy != "" {
		opts.Strategy = domain.MissingStrategy(q.Strategy)
	}
	if q.Columns != "" {
		opts.Columns = domain.ColumnPolicy(q.Columns)
	}
	if q.Window > 0 {
		opts.LowFlowWindow = q.Window
	}
	return opts
}

// readUploads returns the uploaded files as station inputs, or an HTTP status
// and error when the request body is unusable.
func (h *analysisHandler) readUploads(w http.ResponseWriter, r *http.Request) ([]domain.StationInput, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.opts.MaxUploadBytes)
		}
		return nil, http.StatusBadRequest, errors.New("expected a multipart/form-data body")
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup

	files := r.MultipartForm.File[uploadField]
	if len(files) == 0 {
		return nil, http.StatusBadRequest, fmt.Errorf("no files in form field %q", uploadField)
	}

	inputs := make([]domain.StationInput, 0, len(files))
	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		inputs = append(inputs, domain.StationInput{
			Station: domain.StationFromFilename(fh.Filename),
			Source:  fh.Filename,
			Data:    data,
		})
	}
	return inputs, 0, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *analysisHandler) reject(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.metrics.Uploads.WithLabelValues("rejected").Inc()
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func (h *analysisHandler) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.metrics.Uploads.WithLabelValues("failed").Inc()
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func toFailures(fs []pipeline.StationFailure) []failureResponse {
	out := make([]failureResponse, len(fs))
	for i, f := range fs {
		out[i] = failureResponse{
			Station: f.Station,
			Source:  f.Source,
			Reason:  pipeline.FailureReason(f.Err),
			Error:   f.Err.Error(),
		}
	}
	return out
}
