package decompose

import (
	"fmt"
	"sort"

	"github.com/ltikhonov/primordia/internal/model"
)

// mediaCommonKeys are the metadata fields promoted to the top level on
// recompose. Everything else lands in the nested metadata overflow map.
var mediaCommonKeys = []string{
	"title", "mimeType", "size", "width", "height", "duration",
	"bitrate", "codec", "createdAt", "modifiedAt", "author",
	"copyright", "tags",
}

// mediaCanonicalKeys are the fields a canonical media representation
// retains.
var mediaCanonicalKeys = []string{"mimeType", "size", "width", "height", "duration"}

// Media decomposes a media metadata bag (a map or its JSON string
// form) into per-key metadata factors plus content, chunk and
// thumbnail references. Width and height, when both present, derive
// aspect-ratio and resolution-band factors.
type Media struct{}

// NewMedia returns the media algorithm.
func NewMedia() *Media { return &Media{} }

func (a *Media) Domain() model.Domain { return model.DomainMedia }

func (a *Media) Decompose(input any) (*model.Decomposition, error) {
	raw, ok := asObject(input)
	if !ok {
		return nil, invalidInputf("media decomposition requires a metadata object, got %T", input)
	}
	obj := normalizeValue(raw).(map[string]any)

	var factors []model.PrimeFactor
	addMeta := func(key string, value any, common bool) {
		factors = append(factors, model.NewFactor("meta:"+key, map[string]any{
			"key":    key,
			"value":  value,
			"common": common,
		}, model.DomainMedia))
	}

	commonSet := make(map[string]bool, len(mediaCommonKeys))
	for _, k := range mediaCommonKeys {
		commonSet[k] = true
		if v, ok := obj[k]; ok {
			addMeta(k, v, true)
		}
	}

	// Overflow: the nested metadata map plus any unrecognized top-level
	// keys, the latter winning on collision.
	overflow := make(map[string]any)
	if nested, ok := obj["metadata"].(map[string]any); ok {
		for k, v := range nested {
			overflow[k] = v
		}
	}
	for k, v := range obj {
		if commonSet[k] || k == "metadata" || k == "contentReference" || k == "chunks" || k == "thumbnail" {
			continue
		}
		overflow[k] = v
	}
	for _, k := range sortedKeys(overflow) {
		addMeta(k, overflow[k], false)
	}

	if ref, ok := obj["contentReference"]; ok {
		factors = append(factors, model.NewFactor("content", map[string]any{
			"reference": ref,
		}, model.DomainMedia))
	}
	if chunks, ok := obj["chunks"].([]any); ok {
		for i, chunk := range chunks {
			factors = append(factors, model.NewFactor(fmt.Sprintf("chunk:%d", i), map[string]any{
				"index": float64(i),
				"chunk": chunk,
			}, model.DomainMedia))
		}
	}
	if thumb, ok := obj["thumbnail"]; ok {
		factors = append(factors, model.NewFactor("thumbnail", map[string]any{
			"reference": thumb,
		}, model.DomainMedia))
	}

	width, wOK := asNumber(obj["width"])
	height, hOK := asNumber(obj["height"])
	if wOK && hOK && width > 0 && height > 0 {
		g := gcd(int(width), int(height))
		factors = append(factors, model.NewFactor("aspect-ratio", map[string]any{
			"x": float64(int(width) / g),
			"y": float64(int(height) / g),
		}, model.DomainMedia))
		pixels := int(width) * int(height)
		factors = append(factors, model.NewFactor("resolution", map[string]any{
			"category": resolutionBand(pixels),
			"pixels":   float64(pixels),
		}, model.DomainMedia))
	}

	return &model.Decomposition{
		Factors:            factors,
		Method:             model.MethodTag(model.DomainMedia),
		UniquenessProofRef: uniquenessRef(factors),
	}, nil
}

// Recompose rebuilds the metadata bag: common keys at the top level,
// overflow keys under metadata, chunks ordered by their recorded
// index. Derived factors (aspect-ratio, resolution) are not restored;
// they never existed in the input.
func (a *Media) Recompose(d *model.Decomposition) (any, error) {
	if !methodMatches(d, model.DomainMedia) {
		return nil, invalidDecompositionf("method %q is not a media decomposition", d.Method)
	}

	out := make(map[string]any)
	overflow := make(map[string]any)
	for _, f := range d.FactorsWithPrefix("meta:") {
		m := f.ValueMap()
		key, _ := m["key"].(string)
		if key == "" {
			return nil, invalidDecompositionf("metadata factor %q has no key", f.ID)
		}
		if m["common"] == true {
			out[key] = m["value"]
		} else {
			overflow[key] = m["value"]
		}
	}
	if len(overflow) > 0 {
		out["metadata"] = overflow
	}

	if f := d.Factor("content"); f != nil {
		out["contentReference"] = f.ValueMap()["reference"]
	}
	if f := d.Factor("thumbnail"); f != nil {
		out["thumbnail"] = f.ValueMap()["reference"]
	}

	chunkFactors := d.FactorsWithPrefix("chunk:")
	if len(chunkFactors) > 0 {
		sort.SliceStable(chunkFactors, func(i, j int) bool {
			li, _ := asNumber(chunkFactors[i].ValueMap()["index"])
			lj, _ := asNumber(chunkFactors[j].ValueMap()["index"])
			return li < lj
		})
		chunks := make([]any, 0, len(chunkFactors))
		for _, f := range chunkFactors {
			chunks = append(chunks, f.ValueMap()["chunk"])
		}
		out["chunks"] = chunks
	}

	return out, nil
}

// Canonical keeps the identifying subset of the metadata (mime type,
// size, dimensions, duration) plus the content reference. The norm
// saturates at ten metadata factors.
func (a *Media) Canonical(d *model.Decomposition) (*model.CanonicalRepresentation, error) {
	raw, err := a.Recompose(d)
	if err != nil {
		return nil, err
	}
	bag := raw.(map[string]any)

	value := make(map[string]any)
	for _, k := range mediaCanonicalKeys {
		if v, ok := bag[k]; ok {
			value[k] = v
		}
	}
	if ref, ok := bag["contentReference"]; ok {
		value["contentReference"] = ref
	}
	normalized := normalizeValue(value)

	metaCount := len(d.FactorsWithPrefix("meta:"))
	norm := float64(metaCount) / 10
	if norm > 1 {
		norm = 1
	}

	return &model.CanonicalRepresentation{
		Kind:               string(model.DomainMedia),
		Value:              normalized,
		CoherenceNorm:      norm,
		MinimalityProofRef: minimalityRef(normalized),
	}, nil
}

// resolutionBand buckets a pixel count into the conventional display
// classes.
func resolutionBand(pixels int) string {
	switch {
	case pixels >= 3840*2160:
		return "4K"
	case pixels >= 1920*1080:
		return "FullHD"
	case pixels >= 1280*720:
		return "HD"
	case pixels >= 640*480:
		return "SD"
	default:
		return "Low"
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
