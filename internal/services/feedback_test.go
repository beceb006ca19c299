package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/copyforge/copyforge-backend/internal/repos"
	"github.com/copyforge/copyforge-backend/internal/types"
)

func newTestFeedbackService(t *testing.T) (FeedbackService, repos.GeneratedCopyRepo, repos.SourceDocumentRepo) {
	t.Helper()
	log := newTestLogger(t)
	db := newTestDB(t)
	feedback := repos.NewFeedbackRecordRepo(db, log)
	generated := repos.NewGeneratedCopyRepo(db, log)
	docs := repos.NewSourceDocumentRepo(db, log)
	svc, err := NewFeedbackService(log, db, feedback, generated, docs)
	if err != nil {
		t.Fatalf("feedback service: %v", err)
	}
	return svc, generated, docs
}

func seedGeneratedCopy(t *testing.T, generated repos.GeneratedCopyRepo) *types.GeneratedCopy {
	t.Helper()
	gen, err := generated.Create(context.Background(), nil, &types.GeneratedCopy{
		TargetGeo:        "DE",
		TargetLanguage:   "de",
		TargetVertical:   "crypto",
		Offer:            "trading platform",
		Persona:          "excited_fan",
		ComplianceLevel:  "strict",
		GeneratedText:    "some text",
		CompliancePassed: true,
	})
	if err != nil {
		t.Fatalf("seed generated copy: %v", err)
	}
	return gen
}

func TestRecordFeedbackAppendsAndSnapshots(t *testing.T) {
	svc, generated, _ := newTestFeedbackService(t)
	ctx := context.Background()
	gen := seedGeneratedCopy(t, generated)

	first, err := svc.RecordFeedback(ctx, FeedbackInput{GenID: gen.GenID, LeadRate: floatPtr(2.0), BanRate: 0.1})
	if err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	if first.Promoted {
		t.Fatalf("lead rate 2.0 must not promote")
	}
	second, err := svc.RecordFeedback(ctx, FeedbackInput{GenID: gen.GenID, LeadRate: floatPtr(3.5), CTRToLanding: floatPtr(1.2)})
	if err != nil {
		t.Fatalf("second feedback: %v", err)
	}
	if second.Promoted {
		t.Fatalf("lead rate 3.5 must not promote")
	}

	history, err := svc.History(ctx, gen.GenID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows: want=2 got=%d", len(history))
	}

	stored, err := generated.GetByGenID(ctx, nil, gen.GenID)
	if err != nil {
		t.Fatalf("load copy: %v", err)
	}
	// Snapshot holds only the latest submission.
	if stored.LeadRate == nil || *stored.LeadRate != 3.5 {
		t.Fatalf("lead rate snapshot: want=3.5 got=%v", stored.LeadRate)
	}
	if stored.CTRToLanding == nil || *stored.CTRToLanding != 1.2 {
		t.Fatalf("ctr snapshot: want=1.2 got=%v", stored.CTRToLanding)
	}
}

func TestRecordFeedbackPromotesAtThreshold(t *testing.T) {
	svc, generated, docs := newTestFeedbackService(t)
	ctx := context.Background()
	gen := seedGeneratedCopy(t, generated)

	outcome, err := svc.RecordFeedback(ctx, FeedbackInput{GenID: gen.GenID, LeadRate: floatPtr(5.0), DepositRate: floatPtr(1.1)})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if !outcome.Promoted || outcome.PromotedDocumentID == nil {
		t.Fatalf("lead rate at threshold must promote: %+v", outcome)
	}

	doc, err := docs.GetByID(ctx, nil, *outcome.PromotedDocumentID)
	if err != nil {
		t.Fatalf("promoted document: %v", err)
	}
	if doc.Status != types.DocumentStatusWinner {
		t.Fatalf("status: want=winner got=%q", doc.Status)
	}
	if doc.Geo != "DE" || doc.Language != "de" || doc.Vertical != "crypto" {
		t.Fatalf("targeting not copied: %+v", doc)
	}
	if doc.LeadRate == nil || *doc.LeadRate != 5.0 {
		t.Fatalf("lead rate not copied: %v", doc.LeadRate)
	}
	if string(doc.Tags) != `["ai-generated","promoted"]` {
		t.Fatalf("tags: got %s", doc.Tags)
	}

	stored, err := generated.GetByGenID(ctx, nil, gen.GenID)
	if err != nil {
		t.Fatalf("load copy: %v", err)
	}
	if !stored.PromotedToSource || stored.PromotedDocumentID == nil {
		t.Fatalf("promotion flags not set")
	}
}

func TestRecordFeedbackPromotesOnlyOnce(t *testing.T) {
	svc, generated, docs := newTestFeedbackService(t)
	ctx := context.Background()
	gen := seedGeneratedCopy(t, generated)

	first, err := svc.RecordFeedback(ctx, FeedbackInput{GenID: gen.GenID, LeadRate: floatPtr(6.0)})
	if err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	if !first.Promoted {
		t.Fatalf("first qualifying submission must promote")
	}
	second, err := svc.RecordFeedback(ctx, FeedbackInput{GenID: gen.GenID, LeadRate: floatPtr(9.0)})
	if err != nil {
		t.Fatalf("second feedback: %v", err)
	}
	if second.Promoted {
		t.Fatalf("already-promoted copy must not promote again")
	}

	all, err := docs.List(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("promoted documents: want=1 got=%d", len(all))
	}

	stored, err := generated.GetByGenID(ctx, nil, gen.GenID)
	if err != nil {
		t.Fatalf("load copy: %v", err)
	}
	if stored.PromotedDocumentID == nil || *stored.PromotedDocumentID != *first.PromotedDocumentID {
		t.Fatalf("promoted document id must stay at the first promotion")
	}
	// Snapshot still updates even without a second promotion.
	if stored.LeadRate == nil || *stored.LeadRate != 9.0 {
		t.Fatalf("snapshot after second feedback: %v", stored.LeadRate)
	}
}

type failingSaveGeneratedRepo struct {
	repos.GeneratedCopyRepo
	fail bool
}

func (r *failingSaveGeneratedRepo) Save(ctx context.Context, tx *gorm.DB, gen *types.GeneratedCopy) error {
	if r.fail {
		return fmt.Errorf("save unavailable")
	}
	return r.GeneratedCopyRepo.Save(ctx, tx, gen)
}

func TestRecordFeedbackRollsBackPromotionOnSaveFailure(t *testing.T) {
	log := newTestLogger(t)
	db := newTestDB(t)
	feedback := repos.NewFeedbackRecordRepo(db, log)
	generated := &failingSaveGeneratedRepo{GeneratedCopyRepo: repos.NewGeneratedCopyRepo(db, log), fail: true}
	docs := repos.NewSourceDocumentRepo(db, log)
	svc, err := NewFeedbackService(log, db, feedback, generated, docs)
	if err != nil {
		t.Fatalf("feedback service: %v", err)
	}
	ctx := context.Background()
	gen := seedGeneratedCopy(t, generated)

	if _, err := svc.RecordFeedback(ctx, FeedbackInput{GenID: gen.GenID, LeadRate: floatPtr(6.0)}); err == nil {
		t.Fatalf("expected error when snapshot save fails")
	}

	// Nothing from the failed submission may survive: no winner document,
	// no feedback row, artifact still unpromoted.
	all, err := docs.List(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("documents after rollback: want=0 got=%d", len(all))
	}
	history, err := svc.History(ctx, gen.GenID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("feedback rows after rollback: want=0 got=%d", len(history))
	}
	stored, err := generated.GetByGenID(ctx, nil, gen.GenID)
	if err != nil {
		t.Fatalf("load copy: %v", err)
	}
	if stored.PromotedToSource || stored.PromotedDocumentID != nil {
		t.Fatalf("promotion flags must roll back: %+v", stored)
	}

	// A retry after the transient failure promotes exactly once.
	generated.fail = false
	outcome, err := svc.RecordFeedback(ctx, FeedbackInput{GenID: gen.GenID, LeadRate: floatPtr(6.0)})
	if err != nil {
		t.Fatalf("retry feedback: %v", err)
	}
	if !outcome.Promoted {
		t.Fatalf("retry must promote")
	}
	all, err = docs.List(ctx, nil, 10, 0)
	if err != nil {
		t.Fatalf("list documents: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("documents after retry: want=1 got=%d", len(all))
	}
}

func TestRecordFeedbackNilLeadRateNeverPromotes(t *testing.T) {
	svc, generated, _ := newTestFeedbackService(t)
	gen := seedGeneratedCopy(t, generated)

	outcome, err := svc.RecordFeedback(context.Background(), FeedbackInput{GenID: gen.GenID, CTRToLanding: floatPtr(50)})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if outcome.Promoted {
		t.Fatalf("missing lead rate must not promote")
	}
}

func TestRecordFeedbackUnknownCopy(t *testing.T) {
	svc, _, _ := newTestFeedbackService(t)
	if _, err := svc.RecordFeedback(context.Background(), FeedbackInput{GenID: uuid.New(), LeadRate: floatPtr(6)}); err == nil {
		t.Fatalf("expected error for unknown gen_id")
	}
}

func TestRecordFeedbackThresholdFromEnv(t *testing.T) {
	t.Setenv("PROMOTION_LEAD_RATE_THRESHOLD", "2.0")
	svc, generated, _ := newTestFeedbackService(t)
	gen := seedGeneratedCopy(t, generated)

	outcome, err := svc.RecordFeedback(context.Background(), FeedbackInput{GenID: gen.GenID, LeadRate: floatPtr(2.5)})
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if !outcome.Promoted {
		t.Fatalf("2.5 must promote with threshold 2.0")
	}
}
