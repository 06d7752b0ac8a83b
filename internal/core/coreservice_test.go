package core

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jo-hoe/cropdoctor/internal/backend/database"
)

func createTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func newTestConfig(t *testing.T) *ServiceConfig {
	t.Helper()
	config := DefaultConfig()
	config.UploadDirectory = filepath.Join(t.TempDir(), "uploads")
	return config
}

func newTestCoreService(t *testing.T, config *ServiceConfig, opts ...Option) *CoreService {
	t.Helper()
	service, err := NewCoreService(context.Background(), config, opts...)
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}
	t.Cleanup(func() { _ = service.Close() })
	return service
}

func TestCoreService_Predict_Success(t *testing.T) {
	config := newTestConfig(t)
	service := newTestCoreService(t, config, WithPicker(func(n int) int { return 1 }))
	data := createTestPNG(t)

	prediction, err := service.Predict(context.Background(), "test.png", data)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if prediction.Prediction != "Black Rot" {
		t.Errorf("Expected 'Black Rot', got %q", prediction.Prediction)
	}
	if prediction.Solution == "" {
		t.Error("Expected a solution for the default table")
	}
	if prediction.ImageURL != "/static/uploads/test.png" {
		t.Errorf("Expected image_url '/static/uploads/test.png', got %q", prediction.ImageURL)
	}

	saved, err := os.ReadFile(filepath.Join(config.UploadDirectory, "test.png"))
	if err != nil {
		t.Fatalf("expected uploaded file on disk: %v", err)
	}
	if !bytes.Equal(saved, data) {
		t.Error("saved bytes differ from the uploaded bytes")
	}

	records, err := service.LatestPredictions(context.Background(), 10)
	if err != nil {
		t.Fatalf("LatestPredictions failed: %v", err)
	}
	if len(records) != 1 || records[0].Filename != "test.png" || records[0].Label != "Black Rot" {
		t.Errorf("unexpected prediction log %+v", records)
	}
}

func TestCoreService_Predict_FlatLabelsOmitSolution(t *testing.T) {
	config := newTestConfig(t)
	config.Labels = []LabelConfig{{Name: "Healthy"}}
	service := newTestCoreService(t, config)

	prediction, err := service.Predict(context.Background(), "leaf.png", createTestPNG(t))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if prediction.Prediction != "Healthy" || prediction.Solution != "" {
		t.Errorf("unexpected prediction %+v", prediction)
	}
}

func TestCoreService_Predict_Errors(t *testing.T) {
	service := newTestCoreService(t, newTestConfig(t))

	tests := []struct {
		name     string
		filename string
		data     []byte
		want     ErrorKind
	}{
		{name: "empty filename", filename: "", data: createTestPNG(t), want: KindEmptyFilename},
		{name: "text file", filename: "notes.txt", data: []byte("hello"), want: KindDecodeFailure},
		{name: "unsanitizable name", filename: "../..", data: createTestPNG(t), want: KindInvalidFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Predict(context.Background(), tt.filename, tt.data)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v (err: %v)", got, tt.want, err)
			}
		})
	}
}

func TestCoreService_Predict_DoesNotWriteRejectedUploads(t *testing.T) {
	config := newTestConfig(t)
	service := newTestCoreService(t, config)

	if _, err := service.Predict(context.Background(), "notes.txt", []byte("hello")); err == nil {
		t.Fatal("Expected error for text upload")
	}
	entries, err := os.ReadDir(config.UploadDirectory)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty upload directory, found %d entries", len(entries))
	}
}

func TestCoreService_Predict_TraversalStaysInUploadDirectory(t *testing.T) {
	config := newTestConfig(t)
	service := newTestCoreService(t, config)

	prediction, err := service.Predict(context.Background(), "../../etc/passwd.png", createTestPNG(t))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if prediction.ImageURL != "/static/uploads/etc_passwd.png" {
		t.Errorf("unexpected image_url %q", prediction.ImageURL)
	}
	if _, err := os.Stat(filepath.Join(service.UploadDirectory(), "etc_passwd.png")); err != nil {
		t.Errorf("expected sanitized file inside upload directory: %v", err)
	}
}

func TestCoreService_Predict_StorageFailure(t *testing.T) {
	config := newTestConfig(t)
	service := newTestCoreService(t, config)

	// A directory with the target name makes the write fail
	if err := os.Mkdir(filepath.Join(service.UploadDirectory(), "blocked.png"), 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}
	_, err := service.Predict(context.Background(), "blocked.png", createTestPNG(t))
	if KindOf(err) != KindStorageFailure {
		t.Fatalf("Expected storage failure, got %v", err)
	}
}

type failingDatabase struct {
	closed bool
}

func (f *failingDatabase) CreateDatabase(ctx context.Context) error { return nil }
func (f *failingDatabase) DoesDatabaseExist(ctx context.Context) bool { return false }
func (f *failingDatabase) Close() error { f.closed = true; return nil }
func (f *failingDatabase) CountPredictions(ctx context.Context) (int, error) { return 0, nil }
func (f *failingDatabase) CreatePrediction(ctx context.Context, record *database.PredictionRecord) error {
	return errors.New("log unavailable")
}
func (f *failingDatabase) GetLatestPredictions(ctx context.Context, limit int) ([]*database.PredictionRecord, error) {
	return nil, errors.New("log unavailable")
}

func TestCoreService_Predict_LogFailureDoesNotFailRequest(t *testing.T) {
	db := &failingDatabase{}
	service, err := NewCoreService(context.Background(), newTestConfig(t), WithDatabaseService(db))
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}

	if _, err := service.Predict(context.Background(), "test.png", createTestPNG(t)); err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if err := service.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !db.closed {
		t.Error("Expected the injected database to be closed")
	}
}

func TestNewCoreService_ReusesExistingDirectory(t *testing.T) {
	config := newTestConfig(t)
	first := newTestCoreService(t, config)
	second := newTestCoreService(t, config)
	if first.UploadDirectory() != second.UploadDirectory() {
		t.Errorf("expected the same upload directory, got %s and %s", first.UploadDirectory(), second.UploadDirectory())
	}
}

func TestNewCoreService_UnknownCheck(t *testing.T) {
	config := newTestConfig(t)
	config.Checks = []CheckConfig{{Name: "NoSuchCheck"}}
	if _, err := NewCoreService(context.Background(), config); err == nil {
		t.Fatal("Expected error for unknown check")
	}
}
