package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
)

type recordingStore struct {
	mu    sync.Mutex
	calls []string

	createdGroups  []*models.OptionGroup
	updatedGroups  []*models.OptionGroup
	deletedGroups  []uuid.UUID
	createdChoices []*models.OptionChoice
	updatedChoices []*models.OptionChoice
	deletedChoices []uuid.UUID
	createdImages  []*models.ProductImage
	updatedImages  []imageFlagUpdate
	deletedImages  []uuid.UUID

	failOn string
}

type imageFlagUpdate struct {
	ID        uuid.UUID
	IsPrimary bool
	Position  int
}

func (s *recordingStore) record(call string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if s.failOn == call {
		return fmt.Errorf("forced %s failure", call)
	}
	return nil
}

func (s *recordingStore) CreateGroup(_ context.Context, group *models.OptionGroup) (*models.OptionGroup, error) {
	if err := s.record("group_create"); err != nil {
		return nil, err
	}
	group.ID = uuid.New()
	s.createdGroups = append(s.createdGroups, group)
	return group, nil
}

func (s *recordingStore) UpdateGroup(_ context.Context, group *models.OptionGroup) error {
	if err := s.record("group_update"); err != nil {
		return err
	}
	s.updatedGroups = append(s.updatedGroups, group)
	return nil
}

func (s *recordingStore) DeleteGroup(_ context.Context, id uuid.UUID) error {
	if err := s.record("group_delete"); err != nil {
		return err
	}
	s.deletedGroups = append(s.deletedGroups, id)
	return nil
}

func (s *recordingStore) CreateChoice(_ context.Context, choice *models.OptionChoice) (*models.OptionChoice, error) {
	if err := s.record("choice_create"); err != nil {
		return nil, err
	}
	choice.ID = uuid.New()
	s.createdChoices = append(s.createdChoices, choice)
	return choice, nil
}

func (s *recordingStore) UpdateChoice(_ context.Context, choice *models.OptionChoice) error {
	if err := s.record("choice_update"); err != nil {
		return err
	}
	s.updatedChoices = append(s.updatedChoices, choice)
	return nil
}

func (s *recordingStore) DeleteChoice(_ context.Context, id uuid.UUID) error {
	if err := s.record("choice_delete"); err != nil {
		return err
	}
	s.deletedChoices = append(s.deletedChoices, id)
	return nil
}

func (s *recordingStore) CreateImage(_ context.Context, image *models.ProductImage) (*models.ProductImage, error) {
	if err := s.record("image_insert"); err != nil {
		return nil, err
	}
	image.ID = uuid.New()
	s.createdImages = append(s.createdImages, image)
	return image, nil
}

func (s *recordingStore) UpdateImageFlags(_ context.Context, id uuid.UUID, isPrimary bool, position int) error {
	if err := s.record("image_update"); err != nil {
		return err
	}
	s.updatedImages = append(s.updatedImages, imageFlagUpdate{ID: id, IsPrimary: isPrimary, Position: position})
	return nil
}

func (s *recordingStore) DeleteImage(_ context.Context, id uuid.UUID) error {
	if err := s.record("image_delete"); err != nil {
		return err
	}
	s.deletedImages = append(s.deletedImages, id)
	return nil
}

type recordingAssets struct {
	mu        sync.Mutex
	uploads   []string
	purged    []string
	uploadErr error
}

func (a *recordingAssets) Upload(_ context.Context, _ []byte, fileName string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.uploadErr != nil {
		return "", a.uploadErr
	}
	a.uploads = append(a.uploads, fileName)
	return "https://cdn.test/products/" + fileName, nil
}

func (a *recordingAssets) Purge(_ context.Context, assetURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.purged = append(a.purged, assetURL)
}

func newTestEngine(t *testing.T, store *recordingStore, assets *recordingAssets) Engine {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	eng, err := NewEngine(store, assets, logg)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func existingID() *uuid.UUID {
	id := uuid.New()
	return &id
}

func baselineTree(productID uuid.UUID) ProductTree {
	g1 := existingID()
	c1 := existingID()
	c2 := existingID()
	img1 := existingID()
	img2 := existingID()
	return ProductTree{
		ID:          productID,
		NameEN:      "Business Cards",
		NameFR:      "Cartes de visite",
		MinOrderQty: 50,
		IsActive:    true,
		Images: []ImageNode{
			{ID: img1, URL: "https://cdn.test/products/img1.png", IsPrimary: true},
			{ID: img2, URL: "https://cdn.test/products/img2.png"},
		},
		Groups: []GroupNode{
			{
				ID:     g1,
				NameEN: "Paper Size",
				NameFR: "Format de papier",
				Choices: []ChoiceNode{
					{ID: c1, NameEN: "A4", NameFR: "A4"},
					{ID: c2, NameEN: "A5", NameFR: "A5"},
				},
			},
		},
	}
}

func TestReconcileNoOpIssuesNoMutations(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	assets := &recordingAssets{}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	tree := baselineTree(productID)

	if err := eng.Reconcile(context.Background(), productID, tree, tree); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected zero mutation calls, got %v", store.calls)
	}
	if len(assets.uploads) != 0 || len(assets.purged) != 0 {
		t.Fatalf("expected no storage traffic, got uploads=%v purged=%v", assets.uploads, assets.purged)
	}
}

func TestReconcileSingleChoiceRemovalIsMinimal(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	assets := &recordingAssets{}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	original := baselineTree(productID)

	edited := original
	edited.Groups = []GroupNode{original.Groups[0]}
	edited.Groups[0].Choices = original.Groups[0].Choices[:1]

	if err := eng.Reconcile(context.Background(), productID, original, edited); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(store.calls) != 1 || store.calls[0] != "choice_delete" {
		t.Fatalf("expected exactly one choice_delete, got %v", store.calls)
	}
	if store.deletedChoices[0] != *original.Groups[0].Choices[1].ID {
		t.Fatalf("deleted the wrong choice")
	}
}

func TestReconcileCreatesGroupThenItsChoices(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	assets := &recordingAssets{}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	original := baselineTree(productID)

	edited := original
	edited.Groups = append([]GroupNode{}, original.Groups...)
	edited.Groups = append(edited.Groups, GroupNode{
		NameEN: "Finish",
		NameFR: "Finition",
		Choices: []ChoiceNode{
			{NameEN: "Matte", NameFR: "Mat"},
			{NameEN: "Glossy", NameFR: "Brillant"},
		},
	})

	if err := eng.Reconcile(context.Background(), productID, original, edited); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(store.createdGroups) != 1 {
		t.Fatalf("expected one group created, got %d", len(store.createdGroups))
	}
	created := store.createdGroups[0]
	if created.Position != 1 {
		t.Fatalf("expected position 1 from array index, got %d", created.Position)
	}
	if len(store.createdChoices) != 2 {
		t.Fatalf("expected two choices created, got %d", len(store.createdChoices))
	}
	for i, choice := range store.createdChoices {
		if choice.GroupID != created.ID {
			t.Fatalf("choice %d not parented to the new group", i)
		}
		if choice.Position != i {
			t.Fatalf("expected choice position %d, got %d", i, choice.Position)
		}
	}
}

func TestReconcileReorderTriggersPositionUpdates(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	assets := &recordingAssets{}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	original := baselineTree(productID)

	edited := original
	edited.Groups = append([]GroupNode{}, original.Groups...)
	edited.Groups[0].Choices = []ChoiceNode{
		original.Groups[0].Choices[1],
		original.Groups[0].Choices[0],
	}

	if err := eng.Reconcile(context.Background(), productID, original, edited); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(store.updatedChoices) != 2 {
		t.Fatalf("expected both swapped choices updated, got %v", store.calls)
	}
	if len(store.deletedChoices) != 0 || len(store.createdChoices) != 0 {
		t.Fatalf("reorder must not create or delete, got %v", store.calls)
	}
}

func TestReconcileEmptyGroupExcludedFromPersistence(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	assets := &recordingAssets{}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	original := baselineTree(productID)

	// One brand-new empty group plus the existing group edited down to zero choices.
	edited := original
	emptied := original.Groups[0]
	emptied.Choices = nil
	edited.Groups = []GroupNode{
		emptied,
		{NameEN: "Empty", Choices: nil},
	}

	if err := eng.Reconcile(context.Background(), productID, original, edited); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(store.createdGroups) != 0 {
		t.Fatal("empty new group must not be created")
	}
	if len(store.deletedGroups) != 1 || store.deletedGroups[0] != *original.Groups[0].ID {
		t.Fatalf("expected the emptied group deleted, got %v", store.deletedGroups)
	}
}

func TestReconcileImageScenario(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	assets := &recordingAssets{}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	original := baselineTree(productID)
	img1 := original.Images[0]
	img2 := original.Images[1]

	// img2 removed; new img3 marked primary while img1 keeps its stale flag.
	edited := original
	edited.Images = []ImageNode{
		img1,
		{IsPrimary: true, Content: []byte("img3-bytes"), FileName: "img3.png"},
	}

	if err := eng.Reconcile(context.Background(), productID, original, edited); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(assets.uploads) != 1 || assets.uploads[0] != "img3.png" {
		t.Fatalf("expected one upload of img3, got %v", assets.uploads)
	}
	if len(store.createdImages) != 1 {
		t.Fatalf("expected one image row inserted, got %d", len(store.createdImages))
	}
	inserted := store.createdImages[0]
	if !inserted.IsPrimary || inserted.Position != 1 {
		t.Fatalf("img3 must be inserted primary at position 1, got primary=%v position=%d", inserted.IsPrimary, inserted.Position)
	}
	if inserted.URL != "https://cdn.test/products/img3.png" {
		t.Fatalf("inserted row must carry the uploaded url, got %s", inserted.URL)
	}

	if len(store.updatedImages) != 1 {
		t.Fatalf("expected exactly one flag update, got %v", store.updatedImages)
	}
	update := store.updatedImages[0]
	if update.ID != *img1.ID || update.IsPrimary {
		t.Fatalf("img1 must be flipped to non-primary, got %+v", update)
	}

	if len(store.deletedImages) != 1 || store.deletedImages[0] != *img2.ID {
		t.Fatalf("expected img2 row deleted, got %v", store.deletedImages)
	}
	if len(assets.purged) != 1 || assets.purged[0] != img2.URL {
		t.Fatalf("expected img2 asset purged after row deletion, got %v", assets.purged)
	}

	// Row deletion must precede purge recording; purge is the last step.
	last := store.calls[len(store.calls)-1]
	if last != "image_delete" {
		t.Fatalf("expected image_delete to be the final row mutation, got %v", store.calls)
	}
}

func TestReconcileKeepsExactlyOnePrimaryWhenNoneMarked(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	assets := &recordingAssets{}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	original := baselineTree(productID)

	edited := original
	edited.Images = append([]ImageNode{}, original.Images...)
	edited.Images[0].IsPrimary = false

	if err := eng.Reconcile(context.Background(), productID, original, edited); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	// Nobody is marked, so index 0 stays primary and no update is needed.
	if len(store.calls) != 0 {
		t.Fatalf("expected fallback to keep img1 primary without mutations, got %v", store.calls)
	}
}

func TestReconcileUploadFailureAbortsBeforeInsert(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	assets := &recordingAssets{uploadErr: errors.New("bucket down")}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	original := baselineTree(productID)

	edited := original
	edited.Images = append([]ImageNode{}, original.Images...)
	edited.Images = append(edited.Images, ImageNode{Content: []byte("x"), FileName: "new.png"})

	err := eng.Reconcile(context.Background(), productID, original, edited)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(store.createdImages) != 0 {
		t.Fatal("no image row may reference a url that failed to upload")
	}
}

func TestReconcileStepFailureCarriesStepDetail(t *testing.T) {
	t.Parallel()

	store := &recordingStore{failOn: "choice_delete"}
	assets := &recordingAssets{}
	eng := newTestEngine(t, store, assets)

	productID := uuid.New()
	original := baselineTree(productID)

	edited := original
	edited.Groups = []GroupNode{original.Groups[0]}
	edited.Groups[0].Choices = original.Groups[0].Choices[:1]

	err := eng.Reconcile(context.Background(), productID, original, edited)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["step"] != "choice_delete" {
		t.Fatalf("expected step detail choice_delete, got %v", typed.Details())
	}
}
