package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jo-hoe/cropdoctor/internal/backend/checks"
	"github.com/jo-hoe/cropdoctor/internal/backend/database"
	"github.com/jo-hoe/cropdoctor/internal/backend/uploads"
)

// Prediction is the response body of a successful upload.
type Prediction struct {
	Prediction string `json:"prediction"`
	Solution   string `json:"solution,omitempty"`
	ImageURL   string `json:"image_url"`
}

type CoreService struct {
	config          *ServiceConfig
	labels          *LabelTable
	checks          *checks.Pipeline
	store           *uploads.Store
	databaseService database.DatabaseService
}

// Option customizes a CoreService at construction time.
type Option func(*coreOptions)

type coreOptions struct {
	picker          Picker
	databaseService database.DatabaseService
}

// WithPicker replaces the uniform random label picker.
func WithPicker(picker Picker) Option {
	return func(o *coreOptions) {
		o.picker = picker
	}
}

// WithDatabaseService uses an already opened prediction log instead of the
// one described by the config. The service takes ownership of it.
func WithDatabaseService(databaseService database.DatabaseService) Option {
	return func(o *coreOptions) {
		o.databaseService = databaseService
	}
}

// NewCoreService creates the upload directory, the label table, the check
// pipeline and the prediction log.
func NewCoreService(ctx context.Context, config *ServiceConfig, opts ...Option) (*CoreService, error) {
	var options coreOptions
	for _, opt := range opts {
		opt(&options)
	}

	labels, err := NewLabelTable(config.Labels, options.picker)
	if err != nil {
		return nil, fmt.Errorf("invalid label table: %w", err)
	}

	specs := make([]checks.Spec, 0, len(config.Checks))
	for _, check := range config.Checks {
		specs = append(specs, checks.Spec{Name: check.Name, Params: check.Params})
	}
	pipeline, err := checks.NewPipeline(checks.DefaultRegistry, specs)
	if err != nil {
		return nil, fmt.Errorf("failed to build image checks: %w", err)
	}

	store, err := uploads.NewStore(config.UploadDirectory, config.UploadURLPrefix)
	if err != nil {
		return nil, err
	}

	databaseService := options.databaseService
	if databaseService == nil {
		databaseService, err = getDatabaseService(ctx, config)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	slog.Info("core service initialized",
		"labels", labels.Len(),
		"checks", pipeline.Names(),
		"upload_directory", store.Dir())

	return &CoreService{
		config:          config,
		labels:          labels,
		checks:          pipeline,
		store:           store,
		databaseService: databaseService,
	}, nil
}

// Predict validates an uploaded image, saves its original bytes and returns a
// label drawn at random. The image content never influences the label.
func (service *CoreService) Predict(ctx context.Context, filename string, image []byte) (*Prediction, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	if err := service.checks.Run(image); err != nil {
		return nil, newPredictError(KindDecodeFailure, err)
	}

	safeName, err := uploads.SanitizeFilename(filename)
	if err != nil {
		return nil, &PredictError{Kind: KindInvalidFilename, Message: "Invalid filename", Err: err}
	}

	if err := service.store.Save(safeName, image); err != nil {
		return nil, newPredictError(KindStorageFailure, err)
	}

	label, err := service.labels.Random()
	if err != nil {
		return nil, fmt.Errorf("failed to pick a label: %w", err)
	}

	record := &database.PredictionRecord{Filename: safeName, Label: label.Name}
	if err := service.databaseService.CreatePrediction(ctx, record); err != nil {
		slog.Warn("failed to record prediction", "error", err, "filename", safeName)
	}

	return &Prediction{
		Prediction: label.Name,
		Solution:   label.Solution,
		ImageURL:   service.store.URL(safeName),
	}, nil
}

// LatestPredictions returns the newest entries of the prediction log.
func (service *CoreService) LatestPredictions(ctx context.Context, limit int) ([]*database.PredictionRecord, error) {
	return service.databaseService.GetLatestPredictions(ctx, limit)
}

// LabelNames returns the sampling universe in table order.
func (service *CoreService) LabelNames() []string {
	return service.labels.Names()
}

// UploadDirectory returns the absolute directory uploads are written to.
func (service *CoreService) UploadDirectory() string {
	return service.store.Dir()
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

func (service *CoreService) Close() error {
	return errors.Join(service.databaseService.Close(), service.store.Close())
}

func getDatabaseService(ctx context.Context, config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(ctx, config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}
