// Package dialog drives the multi-turn file-search conversation: it
// normalizes slot values, decides the next dialog action for each turn, and
// renders the structured response.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"document-search/internal/elastic"
	"document-search/internal/lex"
)

// Slot names of the file-search intent.
const (
	SlotFileType = "FileType"
	SlotKeywords = "Keywords"
)

// Canonical values of the FileType slot.
const (
	FileTypeText  = "text"
	FileTypeImage = "image"
)

const (
	resultsMessage   = "Here are the search results!"
	noResultsMessage = "Sorry, I can't find a matching document."
)

// Condition gates a slot on another slot's normalized value.
type Condition struct {
	Slot   string
	Equals string
}

// SlotDef describes one slot the engine can elicit. Definition order is
// evaluation order; a conditional slot is considered only on turns where its
// condition already holds.
type SlotDef struct {
	Name      string
	Prompt    string
	Canonical []string            // closed set of canonical values; empty for free text
	Buttons   []map[string]string // selectable choices offered on elicitation
	DependsOn *Condition
}

// FileSearchSlots is the slot set of the file-search intent: the file-type
// discriminator first, then the free-text description.
func FileSearchSlots() []SlotDef {
	return []SlotDef{
		{
			Name:      SlotFileType,
			Prompt:    "What type of file are you looking for?",
			Canonical: []string{FileTypeText, FileTypeImage},
			Buttons: []map[string]string{
				lex.Button("Text Document", FileTypeText),
				lex.Button("Image", FileTypeImage),
			},
		},
		{
			Name:   SlotKeywords,
			Prompt: "Describe the file you are looking for.",
		},
	}
}

// TextSearcher runs a keyword search over indexed text documents.
type TextSearcher interface {
	SearchKeywords(ctx context.Context, keywords []string, maxDocs, fragmentCount, fragmentLength int) ([]elastic.TextHit, error)
}

// ImageSearcher runs a tag search over indexed image documents.
type ImageSearcher interface {
	SearchTags(ctx context.Context, tags []string, maxDocs int) ([]elastic.ImageHit, error)
}

// Config bounds the search a closing turn runs.
type Config struct {
	MaxDocs        int
	FragmentCount  int
	FragmentLength int
}

const (
	defaultMaxDocs        = 3
	defaultFragmentCount  = 3
	defaultFragmentLength = 50
)

// Engine consumes one conversation turn at a time and decides the next
// dialog action. It holds no per-conversation state; everything it needs
// arrives with the turn.
type Engine struct {
	slots  []SlotDef
	text   TextSearcher
	images ImageSearcher
	cfg    Config
}

func NewEngine(slots []SlotDef, text TextSearcher, images ImageSearcher, cfg Config) (*Engine, error) {
	if len(slots) == 0 {
		return nil, errors.New("dialog: slot set must not be empty")
	}
	if text == nil {
		return nil, errors.New("dialog: text searcher must not be nil")
	}
	if images == nil {
		return nil, errors.New("dialog: image searcher must not be nil")
	}
	names := make(map[string]bool, len(slots))
	for _, def := range slots {
		names[def.Name] = true
	}
	for _, def := range slots {
		if def.DependsOn != nil && !names[def.DependsOn.Slot] {
			return nil, fmt.Errorf("dialog: slot %q depends on undeclared slot %q", def.Name, def.DependsOn.Slot)
		}
	}
	if cfg.MaxDocs <= 0 {
		cfg.MaxDocs = defaultMaxDocs
	}
	if cfg.FragmentCount <= 0 {
		cfg.FragmentCount = defaultFragmentCount
	}
	if cfg.FragmentLength <= 0 {
		cfg.FragmentLength = defaultFragmentLength
	}
	return &Engine{slots: slots, text: text, images: images, cfg: cfg}, nil
}

// HandleTurn consumes one inbound turn: it validates the event, normalizes
// the canonical slots, elicits the first unfilled applicable slot, and once
// all slots are filled runs the search matching the discriminator and closes.
func (e *Engine) HandleTurn(ctx context.Context, event events.LexEvent) (events.LexResponse, error) {
	if err := lex.ValidateTurn(event); err != nil {
		return events.LexResponse{}, err
	}
	intent := event.CurrentIntent
	slots := e.normalizedSlots(intent.Slots)

	for _, def := range e.slots {
		if def.DependsOn != nil && !conditionHolds(slots, def.DependsOn) {
			continue
		}
		if slots[def.Name] != nil {
			continue
		}
		var attachments []events.Attachment
		if len(def.Buttons) > 0 {
			attachments = append(attachments, lex.NewAttachment("", "", "", "", def.Buttons...))
		}
		return lex.ElicitSlotResponse(event.SessionAttributes, intent.Name, slots, def.Name, lex.ContentTypePlainText, def.Prompt, attachments...)
	}

	return e.close(ctx, event.SessionAttributes, slots)
}

// normalizedSlots copies the inbound slot map, guarantees every declared slot
// has a key, and maps canonical slots through the fuzzy normalizer.
func (e *Engine) normalizedSlots(raw events.Slots) events.Slots {
	slots := make(events.Slots, len(e.slots))
	for name, value := range raw {
		slots[name] = value
	}
	for _, def := range e.slots {
		value, ok := slots[def.Name]
		if !ok {
			slots[def.Name] = nil
			continue
		}
		if len(def.Canonical) > 0 {
			slots[def.Name] = Normalize(value, def.Canonical)
		}
	}
	return slots
}

func conditionHolds(slots events.Slots, cond *Condition) bool {
	value := slots[cond.Slot]
	return value != nil && *value == cond.Equals
}

func (e *Engine) close(ctx context.Context, attrs events.SessionAttributes, slots events.Slots) (events.LexResponse, error) {
	fileType := slotValue(slots, SlotFileType)
	keywords := strings.Fields(slotValue(slots, SlotKeywords))

	var attachments []events.Attachment
	switch fileType {
	case FileTypeText:
		hits, err := e.text.SearchKeywords(ctx, keywords, e.cfg.MaxDocs, e.cfg.FragmentCount, e.cfg.FragmentLength)
		if err != nil {
			return events.LexResponse{}, err
		}
		for _, hit := range hits {
			attachments = append(attachments, lex.NewAttachment(
				hit.Document.Title,
				strings.Join(hit.Highlights, " ... "),
				"",
				hit.Document.S3URL,
			))
		}
	case FileTypeImage:
		hits, err := e.images.SearchTags(ctx, keywords, e.cfg.MaxDocs)
		if err != nil {
			return events.LexResponse{}, err
		}
		for _, hit := range hits {
			attachments = append(attachments, lex.NewAttachment(
				hit.ID,
				strings.Join(hit.Document.Tags, ", "),
				hit.Document.S3URL,
				hit.Document.S3URL,
			))
		}
	default:
		return events.LexResponse{}, fmt.Errorf("dialog: unsupported file type %q", fileType)
	}

	if len(attachments) == 0 {
		return lex.CloseResponse(attrs, true, lex.ContentTypePlainText, noResultsMessage)
	}
	return lex.CloseResponse(attrs, true, lex.ContentTypePlainText, resultsMessage, attachments...)
}

func slotValue(slots events.Slots, name string) string {
	if value := slots[name]; value != nil {
		return *value
	}
	return ""
}
