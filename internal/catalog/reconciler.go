package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
	pkgerrors "github.com/printcraft-co/printcraft-backend/pkg/errors"
	"github.com/printcraft-co/printcraft-backend/pkg/logger"
)

const maxConcurrentUploads = 4

// treeStore is the slice of the catalog repository the engine mutates.
type treeStore interface {
	CreateGroup(ctx context.Context, group *models.OptionGroup) (*models.OptionGroup, error)
	UpdateGroup(ctx context.Context, group *models.OptionGroup) error
	DeleteGroup(ctx context.Context, id uuid.UUID) error
	CreateChoice(ctx context.Context, choice *models.OptionChoice) (*models.OptionChoice, error)
	UpdateChoice(ctx context.Context, choice *models.OptionChoice) error
	DeleteChoice(ctx context.Context, id uuid.UUID) error
	CreateImage(ctx context.Context, image *models.ProductImage) (*models.ProductImage, error)
	UpdateImageFlags(ctx context.Context, id uuid.UUID, isPrimary bool, position int) error
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

// assetManager is the storage surface the engine needs for image content.
type assetManager interface {
	Upload(ctx context.Context, content []byte, fileName string) (string, error)
	Purge(ctx context.Context, assetURL string)
}

// Engine synchronizes an admin-edited product tree against the persisted one
// with the minimal set of create/update/delete calls.
//
// The engine deliberately does not run inside one ambient transaction: each
// sub-step that fails is logged and surfaced with its step name, and earlier
// successful sub-steps stay applied.
type Engine interface {
	Reconcile(ctx context.Context, productID uuid.UUID, original, edited ProductTree) error
}

type engine struct {
	store  treeStore
	assets assetManager
	logg   *logger.Logger
}

// NewEngine constructs the reconciliation engine.
func NewEngine(store treeStore, assets assetManager, logg *logger.Logger) (Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("tree store required")
	}
	if assets == nil {
		return nil, fmt.Errorf("asset manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &engine{store: store, assets: assets, logg: logg}, nil
}

func (e *engine) Reconcile(ctx context.Context, productID uuid.UUID, original, edited ProductTree) error {
	ctx = e.logg.WithProductID(ctx, productID.String())

	if err := e.reconcileGroups(ctx, productID, original.Groups, edited.Groups); err != nil {
		return err
	}
	return e.reconcileImages(ctx, productID, original.Images, edited.Images)
}

func (e *engine) reconcileGroups(ctx context.Context, productID uuid.UUID, original, edited []GroupNode) error {
	// Groups edited down to zero choices are invalid and excluded from
	// persistence before diffing; an existing group emptied this way is
	// therefore deleted like any other absent group.
	edited = dropEmptyGroups(edited)

	originalByID := make(map[uuid.UUID]indexedGroup, len(original))
	for idx, group := range original {
		if group.ID != nil {
			originalByID[*group.ID] = indexedGroup{node: group, position: idx}
		}
	}

	editedIDs := make(map[uuid.UUID]struct{}, len(edited))

	for idx, group := range edited {
		if group.ID == nil {
			created, err := e.store.CreateGroup(ctx, &models.OptionGroup{
				ProductID: productID,
				NameEN:    group.NameEN,
				NameFR:    group.NameFR,
				Position:  idx,
			})
			if err != nil {
				return e.fail(ctx, "group_create", err)
			}
			for choiceIdx, choice := range group.Choices {
				if err := e.createChoice(ctx, created.ID, choice, choiceIdx); err != nil {
					return err
				}
			}
			continue
		}

		editedIDs[*group.ID] = struct{}{}

		orig, known := originalByID[*group.ID]
		changed := !known ||
			orig.node.NameEN != group.NameEN ||
			orig.node.NameFR != group.NameFR ||
			orig.position != idx
		if changed {
			if err := e.store.UpdateGroup(ctx, &models.OptionGroup{
				ID:       *group.ID,
				NameEN:   group.NameEN,
				NameFR:   group.NameFR,
				Position: idx,
			}); err != nil {
				return e.fail(ctx, "group_update", err)
			}
		}

		var originalChoices []ChoiceNode
		if known {
			originalChoices = orig.node.Choices
		}
		if err := e.reconcileChoices(ctx, *group.ID, originalChoices, group.Choices); err != nil {
			return err
		}
	}

	for id := range originalByID {
		if _, kept := editedIDs[id]; kept {
			continue
		}
		if err := e.store.DeleteGroup(ctx, id); err != nil {
			return e.fail(ctx, "group_delete", err)
		}
	}

	return nil
}

func (e *engine) reconcileChoices(ctx context.Context, groupID uuid.UUID, original, edited []ChoiceNode) error {
	originalByID := make(map[uuid.UUID]indexedChoice, len(original))
	for idx, choice := range original {
		if choice.ID != nil {
			originalByID[*choice.ID] = indexedChoice{node: choice, position: idx}
		}
	}

	editedIDs := make(map[uuid.UUID]struct{}, len(edited))

	for idx, choice := range edited {
		if choice.ID == nil {
			if err := e.createChoice(ctx, groupID, choice, idx); err != nil {
				return err
			}
			continue
		}

		editedIDs[*choice.ID] = struct{}{}

		orig, known := originalByID[*choice.ID]
		changed := !known ||
			orig.node.NameEN != choice.NameEN ||
			orig.node.NameFR != choice.NameFR ||
			orig.position != idx
		if !changed {
			continue
		}
		if err := e.store.UpdateChoice(ctx, &models.OptionChoice{
			ID:       *choice.ID,
			NameEN:   choice.NameEN,
			NameFR:   choice.NameFR,
			Position: idx,
		}); err != nil {
			return e.fail(ctx, "choice_update", err)
		}
	}

	for id := range originalByID {
		if _, kept := editedIDs[id]; kept {
			continue
		}
		if err := e.store.DeleteChoice(ctx, id); err != nil {
			return e.fail(ctx, "choice_delete", err)
		}
	}

	return nil
}

func (e *engine) createChoice(ctx context.Context, groupID uuid.UUID, choice ChoiceNode, position int) error {
	if _, err := e.store.CreateChoice(ctx, &models.OptionChoice{
		GroupID:  groupID,
		NameEN:   choice.NameEN,
		NameFR:   choice.NameFR,
		Position: position,
	}); err != nil {
		return e.fail(ctx, "choice_create", err)
	}
	return nil
}

// reconcileImages executes the image steps in strict order: upload and insert
// new images, update flags on survivors so exactly one primary remains, delete
// removed rows, and only then purge the orphaned binaries best-effort. A late
// failure therefore never leaves a product whose only reachable images were
// already deleted.
func (e *engine) reconcileImages(ctx context.Context, productID uuid.UUID, original, edited []ImageNode) error {
	originalByID := make(map[uuid.UUID]indexedImage, len(original))
	for idx, image := range original {
		if image.ID != nil {
			originalByID[*image.ID] = indexedImage{node: image, position: idx}
		}
	}

	primaryIdx := desiredPrimaryIndex(edited)

	// (a) upload new binaries concurrently, then insert their rows.
	uploadedURLs := make([]string, len(edited))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(maxConcurrentUploads)
	for idx, image := range edited {
		if image.ID != nil {
			continue
		}
		idx, image := idx, image
		grp.Go(func() error {
			if len(image.Content) == 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "new image carries no content")
			}
			url, err := e.assets.Upload(grpCtx, image.Content, image.FileName)
			if err != nil {
				return err
			}
			uploadedURLs[idx] = url
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
			return err
		}
		return e.fail(ctx, "image_upload", err)
	}

	editedIDs := make(map[uuid.UUID]struct{}, len(edited))

	for idx, image := range edited {
		if image.ID != nil {
			editedIDs[*image.ID] = struct{}{}
			continue
		}
		if _, err := e.store.CreateImage(ctx, &models.ProductImage{
			ProductID: productID,
			URL:       uploadedURLs[idx],
			IsPrimary: idx == primaryIdx,
			Position:  idx,
		}); err != nil {
			return e.fail(ctx, "image_insert", err)
		}
	}

	// (b) normalize flags and positions on surviving images.
	for idx, image := range edited {
		if image.ID == nil {
			continue
		}
		orig, known := originalByID[*image.ID]
		wantPrimary := idx == primaryIdx
		changed := !known ||
			orig.node.IsPrimary != wantPrimary ||
			orig.position != idx
		if !changed {
			continue
		}
		if err := e.store.UpdateImageFlags(ctx, *image.ID, wantPrimary, idx); err != nil {
			return e.fail(ctx, "image_update", err)
		}
	}

	// (c) delete removed rows, collecting their asset URLs.
	var orphanedURLs []string
	for id, orig := range originalByID {
		if _, kept := editedIDs[id]; kept {
			continue
		}
		if err := e.store.DeleteImage(ctx, id); err != nil {
			return e.fail(ctx, "image_delete", err)
		}
		if orig.node.URL != "" {
			orphanedURLs = append(orphanedURLs, orig.node.URL)
		}
	}

	// (d) best-effort purge; Purge never returns an error.
	for _, url := range orphanedURLs {
		e.assets.Purge(ctx, url)
	}

	return nil
}

func (e *engine) fail(ctx context.Context, step string, err error) error {
	e.logg.Error(ctx, "reconciliation step failed: "+step, err)
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile: "+step).
		WithDetails(map[string]any{"step": step})
}

// desiredPrimaryIndex picks the image that ends up primary. When several carry
// the flag the last one wins (a newly marked image outranks a stale flag on an
// unchanged one); a product with images is never left without a primary.
func desiredPrimaryIndex(images []ImageNode) int {
	if len(images) == 0 {
		return -1
	}
	for idx := len(images) - 1; idx >= 0; idx-- {
		if images[idx].IsPrimary {
			return idx
		}
	}
	return 0
}

func dropEmptyGroups(groups []GroupNode) []GroupNode {
	kept := make([]GroupNode, 0, len(groups))
	for _, group := range groups {
		if len(group.Choices) == 0 {
			continue
		}
		kept = append(kept, group)
	}
	return kept
}

type indexedGroup struct {
	node     GroupNode
	position int
}

type indexedChoice struct {
	node     ChoiceNode
	position int
}

type indexedImage struct {
	node     ImageNode
	position int
}
