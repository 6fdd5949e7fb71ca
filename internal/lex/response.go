// Package lex models the Amazon Lex DialogCodeHook boundary: inbound turn
// validation and pure construction of the outbound dialog-action payloads.
package lex

import (
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Supported message content types. Anything else is a contract violation.
const (
	ContentTypePlainText     = "PlainText"
	ContentTypeSSML          = "SSML"
	ContentTypeCustomPayload = "CustomPayload"
)

// InvocationDialogCodeHook is the only invocation source this engine serves.
const InvocationDialogCodeHook = "DialogCodeHook"

const responseCardContentType = "application/vnd.amazonaws.card.generic"

// ValidateTurn rejects events this engine must not act on.
func ValidateTurn(event events.LexEvent) error {
	if event.InvocationSource != InvocationDialogCodeHook {
		return fmt.Errorf("lex: unsupported invocation source %q", event.InvocationSource)
	}
	if event.CurrentIntent == nil {
		return errors.New("lex: event carries no current intent")
	}
	return nil
}

// Button creates a selectable chat button with a display label and the value
// sent back on click.
func Button(text, value string) map[string]string {
	return map[string]string{"text": text, "value": value}
}

// NewAttachment creates a generic attachment rendered alongside a prompt or
// result: an optional title, subtitle, image and link, plus buttons.
func NewAttachment(title, subTitle, imageURL, linkURL string, buttons ...map[string]string) events.Attachment {
	return events.Attachment{
		Title:             title,
		SubTitle:          subTitle,
		ImageURL:          imageURL,
		AttachmentLinkURL: linkURL,
		Buttons:           buttons,
	}
}

func validateContentType(contentType string) error {
	switch contentType {
	case ContentTypePlainText, ContentTypeSSML, ContentTypeCustomPayload:
		return nil
	}
	return fmt.Errorf("lex: unsupported content type %q", contentType)
}

func message(contentType, content string) map[string]string {
	return map[string]string{
		"contentType": contentType,
		"content":     content,
	}
}

func responseCard(attachments []events.Attachment) *events.LexResponseCard {
	if len(attachments) == 0 {
		return nil
	}
	return &events.LexResponseCard{
		Version:            1,
		ContentType:        responseCardContentType,
		GenericAttachments: attachments,
	}
}

// CloseResponse tells Lex not to expect anything further from the user.
func CloseResponse(attrs events.SessionAttributes, success bool, contentType, content string, attachments ...events.Attachment) (events.LexResponse, error) {
	if err := validateContentType(contentType); err != nil {
		return events.LexResponse{}, err
	}
	state := "Fulfilled"
	if !success {
		state = "Failed"
	}
	return events.LexResponse{
		SessionAttributes: attrs,
		DialogAction: events.LexDialogAction{
			Type:             "Close",
			FulfillmentState: state,
			Message:          message(contentType, content),
			ResponseCard:     responseCard(attachments),
		},
	}, nil
}

// ElicitSlotResponse tells Lex to prompt the user for one slot value.
// Eliciting a slot absent from the slot map is a programming error.
func ElicitSlotResponse(attrs events.SessionAttributes, intentName string, slots events.Slots, slotToElicit, contentType, content string, attachments ...events.Attachment) (events.LexResponse, error) {
	if err := validateContentType(contentType); err != nil {
		return events.LexResponse{}, err
	}
	if _, ok := slots[slotToElicit]; !ok {
		return events.LexResponse{}, fmt.Errorf("lex: cannot elicit undeclared slot %q", slotToElicit)
	}
	return events.LexResponse{
		SessionAttributes: attrs,
		DialogAction: events.LexDialogAction{
			Type:         "ElicitSlot",
			Message:      message(contentType, content),
			IntentName:   intentName,
			Slots:        slots,
			SlotToElicit: slotToElicit,
			ResponseCard: responseCard(attachments),
		},
	}, nil
}

// ElicitIntentResponse tells Lex to ask the user what they want to do.
func ElicitIntentResponse(attrs events.SessionAttributes, contentType, content string, attachments ...events.Attachment) (events.LexResponse, error) {
	if err := validateContentType(contentType); err != nil {
		return events.LexResponse{}, err
	}
	return events.LexResponse{
		SessionAttributes: attrs,
		DialogAction: events.LexDialogAction{
			Type:         "ElicitIntent",
			Message:      message(contentType, content),
			ResponseCard: responseCard(attachments),
		},
	}, nil
}

// ConfirmIntentResponse tells Lex to ask the user to confirm the intent with
// the slot values gathered so far.
func ConfirmIntentResponse(attrs events.SessionAttributes, intentName string, slots events.Slots, contentType, content string, attachments ...events.Attachment) (events.LexResponse, error) {
	if err := validateContentType(contentType); err != nil {
		return events.LexResponse{}, err
	}
	return events.LexResponse{
		SessionAttributes: attrs,
		DialogAction: events.LexDialogAction{
			Type:         "ConfirmIntent",
			Message:      message(contentType, content),
			IntentName:   intentName,
			Slots:        slots,
			ResponseCard: responseCard(attachments),
		},
	}, nil
}

// DelegateResponse hands the next-action decision back to Lex.
func DelegateResponse(attrs events.SessionAttributes, slots events.Slots) events.LexResponse {
	return events.LexResponse{
		SessionAttributes: attrs,
		DialogAction: events.LexDialogAction{
			Type:  "Delegate",
			Slots: slots,
		},
	}
}
