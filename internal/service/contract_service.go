package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/repository"
	"github.com/prohmpiriya/event-planner/pkg/logger"
	"github.com/prohmpiriya/event-planner/pkg/telemetry"
)

const (
	// contractsSubdir is the folder under the upload dir holding contract files
	contractsSubdir = "contracts"
	// ContractURLPrefix is the public path contract files are served under
	ContractURLPrefix = "/uploads/" + contractsSubdir + "/"
)

// contractService implements ContractService on the local filesystem
type contractService struct {
	eventRepo repository.EventRepository
	recorder  *changeRecorder
	uploadDir string
	log       *logger.Logger
	now       func() time.Time
}

// NewContractService creates a new ContractService storing files under
// uploadDir/contracts
func NewContractService(
	eventRepo repository.EventRepository,
	changeLogRepo repository.ChangeLogRepository,
	publisher ChangeLogPublisher,
	uploadDir string,
	log *logger.Logger,
) ContractService {
	if log == nil {
		log = logger.NewNop()
	}
	return &contractService{
		eventRepo: eventRepo,
		recorder:  newChangeRecorder(changeLogRepo, publisher, log),
		uploadDir: uploadDir,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// UploadContract writes the file as <eventID>-<unixms>-<name> and merges
// the document reference into the event's contract
func (s *contractService) UploadContract(ctx context.Context, eventID, filename string, content io.Reader, actor domain.Actor) (*domain.ContractDocument, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.contract.upload")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID))

	name := sanitizeFilename(filename)
	if name == "" || content == nil {
		return nil, ErrEmptyUpload
	}

	// fail before touching the disk when the event is gone
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := s.now()
	stored := fmt.Sprintf("%s-%d-%s", eventID, now.UnixMilli(), name)
	dir := filepath.Join(s.uploadDir, contractsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	fullPath := filepath.Join(dir, stored)
	if err := writeFile(fullPath, content); err != nil {
		span.RecordError(err)
		return nil, err
	}

	doc := domain.ContractDocument{
		DocumentURL:  path.Join(ContractURLPrefix, stored),
		DocumentName: name,
		UploadedAt:   now.Format(time.RFC3339),
	}
	if err := s.eventRepo.SetContractDocument(ctx, eventID, doc); err != nil {
		if rmErr := os.Remove(fullPath); rmErr != nil {
			s.log.Warn("failed to remove orphaned contract file", zap.String("path", fullPath), zap.Error(rmErr))
		}
		span.RecordError(err)
		return nil, err
	}

	s.log.Info("contract uploaded",
		zap.String("event_id", eventID),
		zap.String("document", stored),
	)
	s.recorder.record(ctx, domain.NewChangeLogEntry(eventID, domain.ChangeLogUpdate, actor, "contract", nil, doc))
	return &doc, nil
}

// GetContract returns the document attached to the event
func (s *contractService) GetContract(ctx context.Context, eventID string) (*domain.ContractDocument, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.contract.get")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Contract == nil || event.Contract.DocumentURL == "" {
		return nil, ErrContractNotFound
	}
	return &domain.ContractDocument{
		DocumentURL:  event.Contract.DocumentURL,
		DocumentName: event.Contract.DocumentName,
		UploadedAt:   event.Contract.UploadedAt,
	}, nil
}

// sanitizeFilename drops any directory part of a client supplied name
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

func writeFile(fullPath string, content io.Reader) error {
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create contract file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(fullPath)
		return fmt.Errorf("failed to write contract file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to write contract file: %w", err)
	}
	return nil
}
