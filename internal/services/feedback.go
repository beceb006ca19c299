package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/copyforge/copyforge-backend/internal/logger"
	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/types"
	"github.com/copyforge/copyforge-backend/internal/utils"
)

type FeedbackInput struct {
	GenID        uuid.UUID `json:"gen_id"`
	CTRToLanding *float64  `json:"ctr_to_landing"`
	LeadRate     *float64  `json:"lead_rate"`
	DepositRate  *float64  `json:"deposit_rate"`
	BanRate      float64   `json:"ban_rate"`
	Impressions  *int      `json:"impressions"`
	Clicks       *int      `json:"clicks"`
}

type FeedbackOutcome struct {
	Record   *types.FeedbackRecord `json:"record"`
	Promoted bool                  `json:"promoted"`
	// PromotedDocumentID is set when this submission triggered promotion.
	PromotedDocumentID *uuid.UUID `json:"promoted_document_id,omitempty"`
}

type FeedbackService interface {
	RecordFeedback(ctx context.Context, input FeedbackInput) (*FeedbackOutcome, error)
	History(ctx context.Context, genID uuid.UUID) ([]*types.FeedbackRecord, error)
}

type feedbackService struct {
	log       *logger.Logger
	db        *gorm.DB
	feedback  repos.FeedbackRecordRepo
	generated repos.GeneratedCopyRepo
	docs      repos.SourceDocumentRepo

	leadRateThreshold float64
}

func NewFeedbackService(
	log *logger.Logger,
	db *gorm.DB,
	feedback repos.FeedbackRecordRepo,
	generated repos.GeneratedCopyRepo,
	docs repos.SourceDocumentRepo,
) (FeedbackService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if feedback == nil {
		return nil, fmt.Errorf("feedback repo required")
	}
	if generated == nil {
		return nil, fmt.Errorf("generated copy repo required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document repo required")
	}
	return &feedbackService{
		log:               log.With("service", "FeedbackService"),
		db:                db,
		feedback:          feedback,
		generated:         generated,
		docs:              docs,
		leadRateThreshold: utils.GetEnvAsFloat("PROMOTION_LEAD_RATE_THRESHOLD", 5.0, log),
	}, nil
}

// RecordFeedback appends a feedback row, overwrites the artifact's metric
// snapshot, and evaluates promotion on the metrics of THIS submission only.
// The feedback row, the promoted document, and the promotion flag commit in
// one transaction so a partial failure cannot leave a winner document behind
// with the artifact still unpromoted.
func (s *feedbackService) RecordFeedback(ctx context.Context, input FeedbackInput) (*FeedbackOutcome, error) {
	if input.GenID == uuid.Nil {
		return nil, fmt.Errorf("gen_id is required")
	}

	var outcome *FeedbackOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		gen, err := s.generated.GetByGenID(ctx, tx, input.GenID)
		if err != nil {
			return fmt.Errorf("generated copy %s: %w", input.GenID, err)
		}

		record, err := s.feedback.Create(ctx, tx, &types.FeedbackRecord{
			GenID:        input.GenID,
			CTRToLanding: input.CTRToLanding,
			LeadRate:     input.LeadRate,
			DepositRate:  input.DepositRate,
			BanRate:      input.BanRate,
			Impressions:  input.Impressions,
			Clicks:       input.Clicks,
			SubmittedAt:  time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("record feedback: %w", err)
		}

		// The artifact keeps only the latest snapshot; history lives in
		// feedback_record.
		gen.CTRToLanding = input.CTRToLanding
		gen.LeadRate = input.LeadRate
		gen.DepositRate = input.DepositRate
		gen.BanRate = input.BanRate

		outcome = &FeedbackOutcome{Record: record}
		if s.shouldPromote(gen, input) {
			doc, err := s.promote(ctx, tx, gen, input)
			if err != nil {
				return err
			}
			gen.PromotedToSource = true
			gen.PromotedDocumentID = &doc.ID
			outcome.Promoted = true
			outcome.PromotedDocumentID = &doc.ID
		}

		if err := s.generated.Save(ctx, tx, gen); err != nil {
			return fmt.Errorf("update metric snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *feedbackService) History(ctx context.Context, genID uuid.UUID) ([]*types.FeedbackRecord, error) {
	if genID == uuid.Nil {
		return nil, fmt.Errorf("gen_id is required")
	}
	return s.feedback.GetByGenID(ctx, nil, genID)
}

// Promotion fires at most once per artifact, and only on the current
// submission's lead rate; past feedback never re-qualifies a copy.
func (s *feedbackService) shouldPromote(gen *types.GeneratedCopy, input FeedbackInput) bool {
	if gen.PromotedToSource {
		return false
	}
	return input.LeadRate != nil && *input.LeadRate >= s.leadRateThreshold
}

func (s *feedbackService) promote(ctx context.Context, tx *gorm.DB, gen *types.GeneratedCopy, input FeedbackInput) (*types.SourceDocument, error) {
	doc, err := s.docs.Create(ctx, tx, &types.SourceDocument{
		ID:           uuid.New(),
		Name:         fmt.Sprintf("promoted copy %s", gen.GenID),
		Geo:          gen.TargetGeo,
		Language:     gen.TargetLanguage,
		Vertical:     gen.TargetVertical,
		Format:       types.DocumentFormatInterview,
		CTRToLanding: input.CTRToLanding,
		LeadRate:     input.LeadRate,
		DepositRate:  input.DepositRate,
		Status:       types.DocumentStatusWinner,
		Tags:         datatypes.JSON(`["ai-generated","promoted"]`),
	})
	if err != nil {
		return nil, fmt.Errorf("promote copy %s: %w", gen.GenID, err)
	}
	s.log.Info("copy promoted to source corpus",
		"gen_id", gen.GenID,
		"document_id", doc.ID,
		"lead_rate", *input.LeadRate,
		"threshold", s.leadRateThreshold,
	)
	return doc, nil
}
