// Package service orchestrates the analysis pipeline: locate the header
// row, detect columns, stitch transactions, run the analytics engine, and
// assemble the dashboard bundle. It owns the current-dataset lifecycle via
// the Repository and memoizes bundles by file hash via the BundleCache.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/honeylavenderwrites/retailytic/internal/analytics"
	"github.com/honeylavenderwrites/retailytic/internal/cache"
	"github.com/honeylavenderwrites/retailytic/internal/domain"
	"github.com/honeylavenderwrites/retailytic/internal/rules"
	"github.com/honeylavenderwrites/retailytic/internal/sheet"
	"github.com/honeylavenderwrites/retailytic/internal/stitch"
	"github.com/honeylavenderwrites/retailytic/internal/store"
	"github.com/honeylavenderwrites/retailytic/internal/xid"
)

// Input-shape errors. The HTTP layer maps these to 400 with the error text
// as the reason; anything else is a 500 with a generic message.
var (
	ErrNoFile           = errors.New("no file provided")
	ErrInsufficientData = errors.New("insufficient data in file")
	ErrNoTransactions   = errors.New("no valid transactions found")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo         store.Repository
	cache        cache.BundleCache
	cacheTTL     time.Duration
	rules        *rules.Ruleset
	engine       *analytics.Engine
	topCustomers int
	logger       *zap.Logger
}

func New(repo store.Repository, bundleCache cache.BundleCache, cacheTTL time.Duration, rs *rules.Ruleset, engine *analytics.Engine, topCustomers int, logger *zap.Logger) *Service {
	if topCustomers < 1 {
		topCustomers = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:         repo,
		cache:        bundleCache,
		cacheTTL:     cacheTTL,
		rules:        rs,
		engine:       engine,
		topCustomers: topCustomers,
		logger:       logger,
	}
}

// Analyze runs the full pipeline over an uploaded workbook and replaces the
// current dataset with the result. Each call works on its own parsed rows;
// concurrent uploads do not share pipeline state, only the final
// ReplaceDataset is serialized by the Repository.
func (s *Service) Analyze(ctx context.Context, fileName string, data []byte) (*domain.DatasetSnapshot, error) {
	if len(data) == 0 {
		return nil, ErrNoFile
	}

	key := contentKey(data)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		s.logger.Info("analysis cache hit", zap.String("file", fileName))
		return s.install(ctx, fileName, *cached)
	} else if err != nil {
		s.logger.Warn("bundle cache get failed", zap.Error(err))
	}

	bundle, err := s.analyzeGrid(data)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, bundle, s.cacheTTL); err != nil {
		s.logger.Warn("bundle cache set failed", zap.Error(err))
	}
	return s.install(ctx, fileName, *bundle)
}

func (s *Service) analyzeGrid(data []byte) (*domain.AnalysisBundle, error) {
	grid, err := sheet.Grid(data)
	if err != nil {
		s.logger.Info("workbook rejected", zap.Error(err))
		return nil, ErrInsufficientData
	}

	headerIdx := sheet.HeaderRowIndex(grid)
	cols := sheet.DetectColumns(grid[headerIdx])
	dataRows := grid[headerIdx+1:]

	txns := stitch.New(cols, s.rules).Stitch(dataRows)
	if len(txns) == 0 {
		return nil, ErrNoTransactions
	}

	bundle := s.assemble(len(dataRows), txns)
	return &bundle, nil
}

func (s *Service) install(ctx context.Context, fileName string, bundle domain.AnalysisBundle) (*domain.DatasetSnapshot, error) {
	snap := domain.DatasetSnapshot{
		ID:         xid.New("ds"),
		FileName:   fileName,
		UploadedAt: time.Now().UTC(),
		Bundle:     bundle,
	}
	if err := s.repo.ReplaceDataset(ctx, snap); err != nil {
		return nil, err
	}
	s.logger.Info("dataset replaced",
		zap.String("id", snap.ID),
		zap.String("file", fileName),
		zap.Int("transactions", bundle.Summary.TransactionCount))
	return &snap, nil
}

// Bundle returns the current dataset, falling back to the built-in sample
// when nothing has been uploaded yet.
func (s *Service) Bundle(ctx context.Context) (*domain.DatasetSnapshot, error) {
	snap, err := s.repo.CurrentDataset(ctx)
	if errors.Is(err, store.ErrNoDataset) {
		return s.LoadSample(ctx)
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Reset drops the current dataset; the next read serves sample data again.
// Admin only.
func (s *Service) Reset(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return errors.New("admin role required")
	}
	return s.repo.ResetDataset(ctx)
}

func (s *Service) Uploads(ctx context.Context, limit int) ([]domain.UploadRecord, error) {
	return s.repo.ListUploads(ctx, limit)
}

// DataSummary is the compact view the natural-language query collaborator
// receives: headline numbers plus short top-N lists, never raw rows.
func (s *Service) DataSummary(ctx context.Context) (*domain.DataSummary, error) {
	snap, err := s.Bundle(ctx)
	if err != nil {
		return nil, err
	}

	b := snap.Bundle
	return &domain.DataSummary{
		Summary:        b.Summary,
		TopProducts:    headProducts(b.Products, 5),
		TopCustomers:   headCustomers(b.Customers, 5),
		PaymentMethods: b.PaymentMethods,
		MonthlySales:   b.MonthlySalesData,
		RFMSegments:    b.RFMSegments,
	}, nil
}

// LoadSample installs the built-in demo dataset. It runs through the same
// assembler as real uploads, so the dashboard shape is identical.
func (s *Service) LoadSample(ctx context.Context) (*domain.DatasetSnapshot, error) {
	txns := sampleTransactions()
	bundle := s.assemble(len(txns)*2, txns)

	snap := domain.DatasetSnapshot{
		ID:         xid.New("sample"),
		FileName:   "sample-sales-register.xlsx",
		Sample:     true,
		UploadedAt: time.Now().UTC(),
		Bundle:     bundle,
	}
	if err := s.repo.ReplaceDataset(ctx, snap); err != nil {
		return nil, err
	}
	s.logger.Info("sample dataset installed", zap.String("id", snap.ID))
	return &snap, nil
}

func headProducts(products []domain.ProductAggregate, n int) []domain.ProductAggregate {
	if len(products) > n {
		products = products[:n]
	}
	return products
}

func headCustomers(customers []domain.CustomerAggregate, n int) []domain.CustomerAggregate {
	if len(customers) > n {
		customers = customers[:n]
	}
	return customers
}

func contentKey(data []byte) string {
	sum := sha256.Sum256(data)
	return "bundle:" + hex.EncodeToString(sum[:])
}
