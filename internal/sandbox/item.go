package sandbox

import (
	"github.com/dop251/goja"

	"github.com/bibharvest/bibharvest/internal/record"
)

// reserved item properties that are not typed fields.
var reservedItemProps = map[string]bool{
	"itemType":    true,
	"title":       true,
	"creators":    true,
	"tags":        true,
	"notes":       true,
	"attachments": true,
	"complete":    true,
	"__ref":       true,
}

// itemConstructor backs `new Item(type)` inside the VM. The returned object
// is a plain JS object the translator fills in; complete() finalizes it into
// an immutable snapshot and auto-registers it with the run's emit pipeline.
// A second complete() call is a no-op.
func (r *Runtime) itemConstructor(call goja.ConstructorCall) *goja.Object {
	obj := call.This

	itemType := record.DefaultItemType
	if len(call.Arguments) > 0 && !goja.IsUndefined(call.Arguments[0]) {
		itemType = call.Arguments[0].String()
	}
	if !record.ValidItemType(itemType) {
		itemType = record.DefaultItemType
	}

	obj.Set("itemType", itemType)
	obj.Set("creators", r.vm.NewArray())
	obj.Set("tags", r.vm.NewArray())
	obj.Set("notes", r.vm.NewArray())
	obj.Set("attachments", r.vm.NewArray())

	completed := false
	obj.Set("complete", func(goja.FunctionCall) goja.Value {
		if completed {
			return goja.Undefined()
		}
		completed = true
		r.emitItem(obj)
		return goja.Undefined()
	})
	return nil
}

// emitItem converts a finalized JS item object into a record snapshot and
// hands it to the emit callback.
func (r *Runtime) emitItem(obj *goja.Object) {
	itemType := stringProp(obj, "itemType")
	builder := record.NewBuilder(itemType, r.emit)
	builder.Title = stringProp(obj, "title")

	// Typed fields: every remaining scalar own property. Fields not valid
	// for the item type are dropped by the builder.
	for _, key := range obj.Keys() {
		if reservedItemProps[key] {
			continue
		}
		val := obj.Get(key)
		if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
			continue
		}
		if _, isObj := val.(*goja.Object); isObj {
			continue
		}
		builder.SetField(key, val.String())
	}

	for _, entry := range exportSlice(obj.Get("creators")) {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		builder.AddCreator(record.Creator{
			FirstName:   stringKey(m, "firstName"),
			LastName:    stringKey(m, "lastName"),
			CreatorType: stringKey(m, "creatorType"),
			FieldMode:   intKey(m, "fieldMode"),
		})
	}

	for _, entry := range exportSlice(obj.Get("tags")) {
		switch v := entry.(type) {
		case string:
			builder.AddTag(v)
		case map[string]interface{}:
			builder.AddTag(stringKey(v, "tag"))
		}
	}

	for _, entry := range exportSlice(obj.Get("notes")) {
		switch v := entry.(type) {
		case string:
			builder.AddNote(v)
		case map[string]interface{}:
			builder.AddNote(stringKey(v, "note"))
		}
	}

	for _, entry := range exportSlice(obj.Get("attachments")) {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		builder.AddAttachment(record.Attachment{
			Title:    stringKey(m, "title"),
			URL:      stringKey(m, "url"),
			MimeType: stringKey(m, "mimeType"),
			Snapshot: boolKey(m, "snapshot"),
		})
	}

	builder.Complete()
}

func stringProp(obj *goja.Object, key string) string {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

func exportSlice(v goja.Value) []interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	out, _ := v.Export().([]interface{})
	return out
}

func stringKey(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func intKey(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func boolKey(m map[string]interface{}, key string) bool {
	b, _ := m[key].(bool)
	return b
}
