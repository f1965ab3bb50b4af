package catalog

import (
	"github.com/google/uuid"

	"github.com/printcraft-co/printcraft-backend/pkg/db/models"
)

// ProductTree is the full nested configuration of one product as the admin
// editor consumes and produces it. Nodes carrying a non-nil ID are persisted
// entities; a nil ID marks a node created client-side that has no row yet.
// Sort positions are implied by array order, not tracked per node.
type ProductTree struct {
	ID            uuid.UUID   `json:"id"`
	NameEN        string      `json:"name_en"`
	NameFR        string      `json:"name_fr"`
	DescriptionEN *string     `json:"description_en,omitempty"`
	DescriptionFR *string     `json:"description_fr,omitempty"`
	MinOrderQty   int         `json:"min_order_qty"`
	IsActive      bool        `json:"is_active"`
	Images        []ImageNode `json:"images"`
	Groups        []GroupNode `json:"option_groups"`
}

// GroupNode is one customization axis in the tree.
type GroupNode struct {
	ID      *uuid.UUID   `json:"id,omitempty"`
	NameEN  string       `json:"name_en"`
	NameFR  string       `json:"name_fr"`
	Choices []ChoiceNode `json:"choices"`
}

// ChoiceNode is one selectable value under a group.
type ChoiceNode struct {
	ID     *uuid.UUID `json:"id,omitempty"`
	NameEN string     `json:"name_en"`
	NameFR string     `json:"name_fr"`
}

// ImageNode is one ordered image. Existing nodes carry the stored URL; new
// nodes carry the raw upload content instead and gain a URL once stored.
type ImageNode struct {
	ID        *uuid.UUID `json:"id,omitempty"`
	URL       string     `json:"url,omitempty"`
	IsPrimary bool       `json:"is_primary"`
	Content   []byte     `json:"content,omitempty"`
	FileName  string     `json:"file_name,omitempty"`
}

// TreeFromModel maps a preloaded product row into the editor tree shape.
// Associations are assumed already ordered by position.
func TreeFromModel(product *models.Product) *ProductTree {
	if product == nil {
		return nil
	}

	tree := &ProductTree{
		ID:            product.ID,
		NameEN:        product.NameEN,
		NameFR:        product.NameFR,
		DescriptionEN: product.DescriptionEN,
		DescriptionFR: product.DescriptionFR,
		MinOrderQty:   product.MinOrderQty,
		IsActive:      product.IsActive,
		Images:        make([]ImageNode, 0, len(product.Images)),
		Groups:        make([]GroupNode, 0, len(product.OptionGroups)),
	}

	for _, image := range product.Images {
		id := image.ID
		tree.Images = append(tree.Images, ImageNode{
			ID:        &id,
			URL:       image.URL,
			IsPrimary: image.IsPrimary,
		})
	}

	for _, group := range product.OptionGroups {
		groupID := group.ID
		node := GroupNode{
			ID:      &groupID,
			NameEN:  group.NameEN,
			NameFR:  group.NameFR,
			Choices: make([]ChoiceNode, 0, len(group.Choices)),
		}
		for _, choice := range group.Choices {
			choiceID := choice.ID
			node.Choices = append(node.Choices, ChoiceNode{
				ID:     &choiceID,
				NameEN: choice.NameEN,
				NameFR: choice.NameFR,
			})
		}
		tree.Groups = append(tree.Groups, node)
	}

	return tree
}
