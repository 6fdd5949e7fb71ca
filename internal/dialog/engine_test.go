package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"document-search/internal/domain"
	"document-search/internal/elastic"
	"document-search/internal/lex"
)

type mockTextSearcher struct {
	keywords       []string
	maxDocs        int
	fragmentCount  int
	fragmentLength int
	hits           []elastic.TextHit
	err            error
}

func (m *mockTextSearcher) SearchKeywords(_ context.Context, keywords []string, maxDocs, fragmentCount, fragmentLength int) ([]elastic.TextHit, error) {
	m.keywords = keywords
	m.maxDocs = maxDocs
	m.fragmentCount = fragmentCount
	m.fragmentLength = fragmentLength
	return m.hits, m.err
}

type mockImageSearcher struct {
	tags    []string
	maxDocs int
	hits    []elastic.ImageHit
	err     error
}

func (m *mockImageSearcher) SearchTags(_ context.Context, tags []string, maxDocs int) ([]elastic.ImageHit, error) {
	m.tags = tags
	m.maxDocs = maxDocs
	return m.hits, m.err
}

func newTestEngine(t *testing.T, text *mockTextSearcher, images *mockImageSearcher) *Engine {
	t.Helper()
	engine, err := NewEngine(FileSearchSlots(), text, images, Config{})
	require.NoError(t, err)
	return engine
}

func turnEvent(slots events.Slots) events.LexEvent {
	return events.LexEvent{
		InvocationSource:  lex.InvocationDialogCodeHook,
		SessionAttributes: map[string]string{"seen": "1"},
		CurrentIntent: &events.LexCurrentIntent{
			Name:  "SearchFiles",
			Slots: slots,
		},
	}
}

func TestNewEngine_Validation(t *testing.T) {
	text := &mockTextSearcher{}
	images := &mockImageSearcher{}

	_, err := NewEngine(nil, text, images, Config{})
	require.Error(t, err)

	_, err = NewEngine(FileSearchSlots(), nil, images, Config{})
	require.Error(t, err)

	_, err = NewEngine(FileSearchSlots(), text, nil, Config{})
	require.Error(t, err)

	slots := append(FileSearchSlots(), SlotDef{
		Name:      "Orphan",
		Prompt:    "?",
		DependsOn: &Condition{Slot: "Missing", Equals: "x"},
	})
	_, err = NewEngine(slots, text, images, Config{})
	require.ErrorContains(t, err, "undeclared slot")
}

func TestHandleTurn_RejectsNonDialogCodeHook(t *testing.T) {
	engine := newTestEngine(t, &mockTextSearcher{}, &mockImageSearcher{})

	event := turnEvent(events.Slots{})
	event.InvocationSource = "FulfillmentCodeHook"

	_, err := engine.HandleTurn(context.Background(), event)
	require.ErrorContains(t, err, "invocation source")
}

func TestHandleTurn_ElicitsFileTypeFirstWithButtons(t *testing.T) {
	engine := newTestEngine(t, &mockTextSearcher{}, &mockImageSearcher{})

	resp, err := engine.HandleTurn(context.Background(), turnEvent(events.Slots{}))
	require.NoError(t, err)
	require.Equal(t, "ElicitSlot", resp.DialogAction.Type)
	require.Equal(t, SlotFileType, resp.DialogAction.SlotToElicit)
	require.Equal(t, "SearchFiles", resp.DialogAction.IntentName)
	require.Equal(t, "What type of file are you looking for?", resp.DialogAction.Message["content"])
	require.Equal(t, events.SessionAttributes{"seen": "1"}, resp.SessionAttributes)

	// Every declared slot appears in the response map, even when unfilled.
	require.Contains(t, resp.DialogAction.Slots, SlotFileType)
	require.Contains(t, resp.DialogAction.Slots, SlotKeywords)

	require.NotNil(t, resp.DialogAction.ResponseCard)
	require.Len(t, resp.DialogAction.ResponseCard.GenericAttachments, 1)
	buttons := resp.DialogAction.ResponseCard.GenericAttachments[0].Buttons
	require.Equal(t, []map[string]string{
		{"text": "Text Document", "value": FileTypeText},
		{"text": "Image", "value": FileTypeImage},
	}, buttons)
}

func TestHandleTurn_ElicitsKeywordsAfterFileType(t *testing.T) {
	engine := newTestEngine(t, &mockTextSearcher{}, &mockImageSearcher{})

	resp, err := engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("text"),
	}))
	require.NoError(t, err)
	require.Equal(t, "ElicitSlot", resp.DialogAction.Type)
	require.Equal(t, SlotKeywords, resp.DialogAction.SlotToElicit)
	require.Nil(t, resp.DialogAction.ResponseCard)
}

func TestHandleTurn_NormalizesFileTypeBeforeDeciding(t *testing.T) {
	engine := newTestEngine(t, &mockTextSearcher{}, &mockImageSearcher{})

	// A fuzzy value fills the slot, so the turn moves on to Keywords.
	resp, err := engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("txt files"),
	}))
	require.NoError(t, err)
	require.Equal(t, SlotKeywords, resp.DialogAction.SlotToElicit)
	require.Equal(t, "text", *resp.DialogAction.Slots[SlotFileType])

	// An unrecognizable value normalizes to nil and is elicited again.
	resp, err = engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("zzz"),
	}))
	require.NoError(t, err)
	require.Equal(t, SlotFileType, resp.DialogAction.SlotToElicit)
	require.Nil(t, resp.DialogAction.Slots[SlotFileType])
}

func TestHandleTurn_ClosesWithTextResults(t *testing.T) {
	text := &mockTextSearcher{hits: []elastic.TextHit{
		{
			ID: "bucket--report.pdf",
			Document: domain.TextDocument{
				Title: "report.pdf",
				S3URL: "https://s3-us-east-1.amazonaws.com/bucket/report.pdf",
			},
			Highlights: []string{"first <em>match</em>", "second <em>match</em>"},
		},
	}}
	engine := newTestEngine(t, text, &mockImageSearcher{})

	resp, err := engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("text"),
		SlotKeywords: strPtr("quarterly report"),
	}))
	require.NoError(t, err)
	require.Equal(t, []string{"quarterly", "report"}, text.keywords)
	require.Equal(t, 3, text.maxDocs)
	require.Equal(t, 3, text.fragmentCount)
	require.Equal(t, 50, text.fragmentLength)

	require.Equal(t, "Close", resp.DialogAction.Type)
	require.Equal(t, "Fulfilled", resp.DialogAction.FulfillmentState)
	require.Equal(t, resultsMessage, resp.DialogAction.Message["content"])

	require.NotNil(t, resp.DialogAction.ResponseCard)
	attachments := resp.DialogAction.ResponseCard.GenericAttachments
	require.Len(t, attachments, 1)
	require.Equal(t, "report.pdf", attachments[0].Title)
	require.Equal(t, "first <em>match</em> ... second <em>match</em>", attachments[0].SubTitle)
	require.Equal(t, "https://s3-us-east-1.amazonaws.com/bucket/report.pdf", attachments[0].AttachmentLinkURL)
	require.Empty(t, attachments[0].ImageURL)
}

func TestHandleTurn_ClosesWithImageResults(t *testing.T) {
	images := &mockImageSearcher{hits: []elastic.ImageHit{
		{
			ID: "bucket--cat.jpg",
			Document: domain.ImageDocument{
				S3URL: "https://s3-us-east-1.amazonaws.com/bucket/cat.jpg",
				Tags:  []string{"cat", "animal"},
			},
		},
	}}
	engine := newTestEngine(t, &mockTextSearcher{}, images)

	resp, err := engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("image"),
		SlotKeywords: strPtr("cat"),
	}))
	require.NoError(t, err)
	require.Equal(t, []string{"cat"}, images.tags)
	require.Equal(t, 3, images.maxDocs)

	attachments := resp.DialogAction.ResponseCard.GenericAttachments
	require.Len(t, attachments, 1)
	require.Equal(t, "bucket--cat.jpg", attachments[0].Title)
	require.Equal(t, "cat, animal", attachments[0].SubTitle)
	require.Equal(t, "https://s3-us-east-1.amazonaws.com/bucket/cat.jpg", attachments[0].ImageURL)
	require.Equal(t, "https://s3-us-east-1.amazonaws.com/bucket/cat.jpg", attachments[0].AttachmentLinkURL)
}

func TestHandleTurn_ClosesWithoutResultsMessage(t *testing.T) {
	engine := newTestEngine(t, &mockTextSearcher{}, &mockImageSearcher{})

	resp, err := engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("text"),
		SlotKeywords: strPtr("nothing matches this"),
	}))
	require.NoError(t, err)
	require.Equal(t, "Close", resp.DialogAction.Type)
	require.Equal(t, "Fulfilled", resp.DialogAction.FulfillmentState)
	require.Equal(t, noResultsMessage, resp.DialogAction.Message["content"])
	require.Nil(t, resp.DialogAction.ResponseCard)
}

func TestHandleTurn_PropagatesSearchFailure(t *testing.T) {
	text := &mockTextSearcher{err: errors.New("search engine unreachable")}
	engine := newTestEngine(t, text, &mockImageSearcher{})

	_, err := engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("text"),
		SlotKeywords: strPtr("report"),
	}))
	require.ErrorContains(t, err, "search engine unreachable")
}

func TestHandleTurn_SkipsConditionalSlotUntilConditionHolds(t *testing.T) {
	slots := append(FileSearchSlots(), SlotDef{
		Name:      "ImageRegion",
		Prompt:    "Which region of the image?",
		DependsOn: &Condition{Slot: SlotFileType, Equals: FileTypeImage},
	})
	images := &mockImageSearcher{}
	engine, err := NewEngine(slots, &mockTextSearcher{}, images, Config{})
	require.NoError(t, err)

	// Text searches never see the image-only slot.
	resp, err := engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("text"),
		SlotKeywords: strPtr("report"),
	}))
	require.NoError(t, err)
	require.Equal(t, "Close", resp.DialogAction.Type)

	// Image searches elicit it once the discriminator holds.
	resp, err = engine.HandleTurn(context.Background(), turnEvent(events.Slots{
		SlotFileType: strPtr("image"),
		SlotKeywords: strPtr("cat"),
	}))
	require.NoError(t, err)
	require.Equal(t, "ElicitSlot", resp.DialogAction.Type)
	require.Equal(t, "ImageRegion", resp.DialogAction.SlotToElicit)
}
