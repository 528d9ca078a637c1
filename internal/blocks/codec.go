package blocks

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Codec failure classes. Callers that surface numeric error kinds map
// ErrSyntax and ErrShape to the invalid-JSON kind and ErrBlockDecode to
// the deserialization kind.
var (
	// ErrSyntax marks input that is not valid JSON at all.
	ErrSyntax = errors.New("invalid JSON syntax")
	// ErrShape marks valid JSON whose top-level shape is not a block
	// collection (neither an array nor an object with "schedulingBlocks").
	ErrShape = errors.New("unexpected JSON shape")
	// ErrBlockDecode marks a well-formed element whose payload cannot be
	// turned into a valid block.
	ErrBlockDecode = errors.New("invalid scheduling block")
)

// DecodeOptions control collection decoding.
type DecodeOptions struct {
	// Strict makes an unrecognized block discriminator a decode failure.
	// The default (lenient) policy skips the element with a warning,
	// matching the engine's historical behavior.
	Strict bool
}

// Decode parses a block collection from JSON. The input is either a bare
// array of block elements or an object with a "schedulingBlocks" array.
func Decode(data []byte, opts DecodeOptions) (*Collection, error) {
	var top json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	elements, err := collectionElements(top)
	if err != nil {
		return nil, err
	}

	col := &Collection{Blocks: make([]*Block, 0, len(elements))}
	for i, element := range elements {
		block, err := decodeElement(element, opts)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		if block == nil {
			continue // unknown discriminator, lenient skip
		}
		col.Blocks = append(col.Blocks, block)
	}
	return col, nil
}

func collectionElements(top json.RawMessage) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(top))
	if strings.HasPrefix(trimmed, "[") {
		var elements []json.RawMessage
		if err := json.Unmarshal(top, &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return elements, nil
	}

	var wrapper struct {
		SchedulingBlocks []json.RawMessage `json:"schedulingBlocks"`
	}
	if err := json.Unmarshal(top, &wrapper); err != nil || wrapper.SchedulingBlocks == nil {
		return nil, fmt.Errorf("%w: expected array or object with 'schedulingBlocks' key", ErrShape)
	}
	return wrapper.SchedulingBlocks, nil
}

// decodeElement decodes one tagged element. A nil block with nil error
// means the discriminator was unknown and the element was skipped.
func decodeElement(element json.RawMessage, opts DecodeOptions) (*Block, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(element, &tagged); err != nil {
		return nil, fmt.Errorf("%w: element is not an object: %v", ErrBlockDecode, err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("%w: element must have exactly one type key, has %d", ErrBlockDecode, len(tagged))
	}

	var discriminator string
	var raw json.RawMessage
	for key, value := range tagged {
		discriminator = key
		raw = value
	}

	kind, ok := kindFromDiscriminator(discriminator)
	if !ok {
		if opts.Strict {
			return nil, fmt.Errorf("%w: unknown block type %q", ErrBlockDecode, discriminator)
		}
		log.Warn().Str("type", discriminator).Msg("Skipping block with unknown type")
		return nil, nil
	}

	return decodePayload(kind, raw, opts)
}

// kindFromDiscriminator matches both bare type names and the namespaced
// form emitted by the native engine ("stars::scheduling_blocks::ObservationTask").
func kindFromDiscriminator(key string) (Kind, bool) {
	if idx := strings.LastIndex(key, "::"); idx >= 0 {
		key = key[idx+2:]
	}
	switch Kind(key) {
	case KindObservation, KindEngineering, KindSequence:
		return Kind(key), true
	}
	return "", false
}

type wirePayload struct {
	ID                string            `json:"id,omitempty"`
	Name              string            `json:"name"`
	Priority          float64           `json:"priority"`
	Duration          *Duration         `json:"duration,omitempty"`
	TargetCoordinates *wireCoordinates  `json:"targetCoordinates,omitempty"`
	SchedulingBlocks  []json.RawMessage `json:"schedulingBlocks,omitempty"`
}

func decodePayload(kind Kind, raw json.RawMessage, opts DecodeOptions) (*Block, error) {
	var payload wirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlockDecode, err)
	}
	if payload.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrBlockDecode)
	}

	block := &Block{
		ID:       payload.ID,
		Name:     payload.Name,
		Priority: payload.Priority,
		Kind:     kind,
	}
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if payload.Duration != nil {
		block.Duration = *payload.Duration
	}

	switch kind {
	case KindObservation:
		if payload.TargetCoordinates != nil {
			coords, err := payload.TargetCoordinates.resolve()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBlockDecode, err)
			}
			block.Target = coords
		}
	case KindSequence:
		for i, childRaw := range payload.SchedulingBlocks {
			child, err := decodeElement(childRaw, opts)
			if err != nil {
				return nil, fmt.Errorf("sequence child %d: %w", i, err)
			}
			if child == nil {
				continue
			}
			block.Children = append(block.Children, child)
		}
	}

	return block, nil
}

// wireCoordinates accepts ra/dec either as degrees (numbers) or as
// sexagesimal strings ("13:29:52.7" in hours for RA, "+47:11:43" in
// degrees for Dec), both of which appear in real schedule files.
type wireCoordinates struct {
	RA  json.RawMessage `json:"ra"`
	Dec json.RawMessage `json:"dec"`
}

func (w *wireCoordinates) resolve() (*Coordinates, error) {
	ra, err := parseAngle(w.RA, 15.0)
	if err != nil {
		return nil, fmt.Errorf("targetCoordinates.ra: %w", err)
	}
	dec, err := parseAngle(w.Dec, 1.0)
	if err != nil {
		return nil, fmt.Errorf("targetCoordinates.dec: %w", err)
	}
	if dec < -90 || dec > 90 {
		return nil, fmt.Errorf("declination %v out of range [-90, 90]", dec)
	}
	return &Coordinates{RA: normalizeRA(ra), Dec: dec}, nil
}

// parseAngle converts a raw JSON value into degrees. String values are
// sexagesimal; sexagesimalScale converts the leading component to degrees
// (15 for hour-angle RA, 1 for Dec).
func parseAngle(raw json.RawMessage, sexagesimalScale float64) (float64, error) {
	if len(raw) == 0 {
		return 0, errors.New("missing value")
	}

	var degrees float64
	if err := json.Unmarshal(raw, &degrees); err == nil {
		return degrees, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, errors.New("expected number or sexagesimal string")
	}
	return parseSexagesimal(text, sexagesimalScale)
}

func parseSexagesimal(text string, scale float64) (float64, error) {
	text = strings.TrimSpace(text)
	sign := 1.0
	switch {
	case strings.HasPrefix(text, "-"):
		sign = -1.0
		text = text[1:]
	case strings.HasPrefix(text, "+"):
		text = text[1:]
	}

	parts := strings.Split(text, ":")
	if len(parts) < 1 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid sexagesimal value %q", text)
	}

	var value, divisor float64
	divisor = 1
	for _, part := range parts {
		component, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid sexagesimal value %q", text)
		}
		value += component / divisor
		divisor *= 60
	}
	return sign * value * scale, nil
}

func normalizeRA(ra float64) float64 {
	for ra < 0 {
		ra += 360
	}
	for ra >= 360 {
		ra -= 360
	}
	return ra
}

// Encode serializes the collection into the canonical wrapper object.
func Encode(c *Collection) ([]byte, error) {
	elements := make([]json.RawMessage, 0, len(c.Blocks))
	for _, block := range c.Blocks {
		raw, err := EncodeBlock(block)
		if err != nil {
			return nil, err
		}
		elements = append(elements, raw)
	}
	return json.Marshal(map[string][]json.RawMessage{"schedulingBlocks": elements})
}

// EncodeBlock serializes a single block as a tagged single-key object.
// Coordinates are always exported in degrees.
func EncodeBlock(b *Block) ([]byte, error) {
	payload := map[string]any{
		"id":       b.ID,
		"name":     b.Name,
		"priority": b.Priority,
	}
	if b.Kind != KindSequence {
		payload["duration"] = b.Duration
	}
	if b.Target != nil {
		payload["targetCoordinates"] = map[string]float64{
			"ra":  b.Target.RA,
			"dec": b.Target.Dec,
		}
	}
	if b.Kind == KindSequence {
		children := make([]json.RawMessage, 0, len(b.Children))
		for _, child := range b.Children {
			raw, err := EncodeBlock(child)
			if err != nil {
				return nil, err
			}
			children = append(children, raw)
		}
		payload["schedulingBlocks"] = children
	}

	raw, err := json.Marshal(map[string]any{string(b.Kind): payload})
	if err != nil {
		return nil, fmt.Errorf("encoding block %q: %w", b.Name, err)
	}
	return raw, nil
}
