package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog entry that can be placed in a cart.
type Product struct {
	BaseModel
	Name         string         `gorm:"uniqueIndex;not null" json:"name"`
	Price        float64        `gorm:"not null" json:"price"`
	Description  string         `gorm:"not null" json:"description"`
	Stock        int            `gorm:"not null;default:0" json:"stock"`
	Images       pq.StringArray `gorm:"type:text[]" json:"images"`
	CategoryID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"category_id"`
	Category     *Category      `json:"category,omitempty"`
	VariantTypes VariantTypes   `gorm:"type:jsonb;serializer:json" json:"variant_types"`
}

// VariantType describes one selectable product dimension, e.g. "color" with
// the allowed values ["red", "blue"].
type VariantType struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// VariantTypes is an ordered list of variant types keyed by VariantType.Key.
type VariantTypes []VariantType

// ErrInvalidVariantType is wrapped by Normalize for malformed entries.
var ErrInvalidVariantType = errors.New("invalid variant type")

// Normalize trims keys and values, drops duplicate values while keeping
// their first position, and rejects empty keys or empty value lists.
// A key given twice keeps its last occurrence.
func (vt VariantTypes) Normalize() (VariantTypes, error) {
	out := make(VariantTypes, 0, len(vt))
	index := make(map[string]int, len(vt))

	for i, item := range vt {
		key := strings.TrimSpace(item.Key)
		if key == "" {
			return nil, fmt.Errorf("%w at index %d: key is required", ErrInvalidVariantType, i)
		}

		seen := make(map[string]struct{}, len(item.Values))
		values := make([]string, 0, len(item.Values))
		for _, v := range item.Values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("%w at index %d: values must not be empty", ErrInvalidVariantType, i)
		}

		normalized := VariantType{Key: key, Values: values}
		if pos, ok := index[key]; ok {
			out[pos] = normalized
			continue
		}
		index[key] = len(out)
		out = append(out, normalized)
	}

	return out, nil
}

// Merge returns the existing entries whose key is not present in updates,
// followed by all updates. An update for an existing key replaces it.
func (vt VariantTypes) Merge(updates VariantTypes) VariantTypes {
	replaced := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		replaced[u.Key] = struct{}{}
	}

	merged := make(VariantTypes, 0, len(vt)+len(updates))
	for _, existing := range vt {
		if _, ok := replaced[existing.Key]; ok {
			continue
		}
		merged = append(merged, existing)
	}
	return append(merged, updates...)
}
