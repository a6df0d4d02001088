package record

import (
	"sync"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// Creator is one author/editor/etc entry on a record.
type Creator struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	CreatorType string `json:"creatorType"`
	// FieldMode 1 marks a single-field name (institutions, mononyms).
	FieldMode int `json:"fieldMode,omitempty"`
}

// Tag is a free-form keyword attached to a record.
type Tag struct {
	Tag string `json:"tag"`
}

// Note holds sanitized HTML note content.
type Note struct {
	Note string `json:"note"`
}

// Attachment references supplementary content (snapshots, PDFs).
type Attachment struct {
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Snapshot bool   `json:"snapshot,omitempty"`
}

// Snapshot is the immutable finalized form of a record. Ownership transfers
// to the aggregator on completion; nothing mutates it afterwards.
type Snapshot struct {
	Key         string            `json:"key"`
	ItemType    string            `json:"itemType"`
	Title       string            `json:"title,omitempty"`
	Creators    []Creator         `json:"creators,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	Tags        []Tag             `json:"tags,omitempty"`
	Notes       []Note            `json:"notes,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
}

// noteSanitizer strips scripts and other unsafe markup from note HTML.
var noteSanitizer = bluemonday.UGCPolicy()

// Builder accumulates record data during an extraction run. It is owned by
// the running extraction until Complete transfers an immutable Snapshot to
// the emit callback.
type Builder struct {
	ItemType    string
	Title       string
	Creators    []Creator
	Fields      map[string]string
	Tags        []Tag
	Notes       []Note
	Attachments []Attachment

	mu       sync.Mutex
	complete bool
	emit     func(Snapshot)
}

// NewBuilder creates a builder for the given item type, falling back to the
// default type when unknown. emit receives the finalized snapshot; it may
// be nil.
func NewBuilder(itemType string, emit func(Snapshot)) *Builder {
	if !ValidItemType(itemType) {
		itemType = DefaultItemType
	}
	return &Builder{
		ItemType: itemType,
		Fields:   make(map[string]string),
		emit:     emit,
	}
}

// SetField stores a typed field value. Fields not valid for the builder's
// item type are dropped; the caller can check with FieldValidForType first.
func (b *Builder) SetField(name, value string) bool {
	if value == "" || !FieldValidForType(name, b.ItemType) {
		return false
	}
	b.Fields[name] = value
	return true
}

// AddCreator appends a creator, coercing unknown creator types to the first
// valid type for the item.
func (b *Builder) AddCreator(c Creator) {
	if !CreatorTypeValidForItemType(c.CreatorType, b.ItemType) {
		valid := CreatorTypesForItemType(b.ItemType)
		if len(valid) == 0 {
			return
		}
		c.CreatorType = valid[0]
	}
	b.Creators = append(b.Creators, c)
}

// AddTag appends a keyword tag, ignoring empties.
func (b *Builder) AddTag(tag string) {
	if tag == "" {
		return
	}
	b.Tags = append(b.Tags, Tag{Tag: tag})
}

// AddNote appends a note with its HTML sanitized.
func (b *Builder) AddNote(note string) {
	if note == "" {
		return
	}
	b.Notes = append(b.Notes, Note{Note: noteSanitizer.Sanitize(note)})
}

// AddAttachment appends an attachment reference.
func (b *Builder) AddAttachment(a Attachment) {
	b.Attachments = append(b.Attachments, a)
}

// Complete finalizes the builder into a Snapshot and hands it to the emit
// callback. Idempotent: a second call is a no-op, not an error.
func (b *Builder) Complete() {
	b.mu.Lock()
	if b.complete {
		b.mu.Unlock()
		return
	}
	b.complete = true
	b.mu.Unlock()

	snap := Snapshot{
		Key:         uuid.NewString(),
		ItemType:    b.ItemType,
		Title:       b.Title,
		Creators:    append([]Creator{}, b.Creators...),
		Fields:      make(map[string]string, len(b.Fields)),
		Tags:        append([]Tag{}, b.Tags...),
		Notes:       append([]Note{}, b.Notes...),
		Attachments: append([]Attachment{}, b.Attachments...),
	}
	for k, v := range b.Fields {
		snap.Fields[k] = v
	}

	if b.emit != nil {
		b.emit(snap)
	}
}

// Completed reports whether Complete has run.
func (b *Builder) Completed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.complete
}
