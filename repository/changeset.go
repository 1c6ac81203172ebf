package repository

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	jsonpatch "github.com/evanphx/json-patch"
	jsoniter "github.com/json-iterator/go"
)

var (
	// ErrEncodingChangeFailed is returned when a change value cannot be encoded as JSON.
	ErrEncodingChangeFailed = errors.New("encoding change value failed")

	// ErrEmptyFieldName is returned when a change is recorded without a field name.
	ErrEmptyFieldName = errors.New("field name must not be empty")

	// ErrApplyingChangeSetFailed is returned when a ChangeSet cannot be applied to a value.
	// The original value is left untouched in that case.
	ErrApplyingChangeSetFailed = errors.New("applying change set failed")
)

// ChangeOp is the kind of mutation a Change performs.
type ChangeOp string

const (
	// ChangeOpSet sets a field, replacing any previous value.
	ChangeOpSet ChangeOp = "set"

	// ChangeOpAppend appends a value to an array field.
	ChangeOpAppend ChangeOp = "append"

	// ChangeOpRemove removes a field or array element.
	ChangeOpRemove ChangeOp = "remove"
)

// Change is a single named field mutation. Path is the JSON Pointer (RFC 6901) of the field.
type Change struct {
	Op    ChangeOp
	Path  string
	Value jsoniter.RawMessage
}

type patchOperation struct {
	Op    string              `json:"op"`
	Path  string              `json:"path"`
	Value jsoniter.RawMessage `json:"value,omitempty"`
}

// changeLog is shared by a ChangeSet and all partial change sets derived from it.
type changeLog struct {
	mu      sync.Mutex
	changes []Change
}

// ChangeSet records named field mutations against the JSON form of a DTO.
//
// Field names are JSON member names as produced by the DTO's json tags.
// A partial ChangeSet (Partial, PartialAt) is scoped to a nested object; the changes
// recorded through it land in the same change list as its parent.
//
// The nested object a partial ChangeSet points to must be present in the JSON form
// (not null) when the changes are applied.
type ChangeSet struct {
	prefix string
	log    *changeLog
}

// NewChangeSet creates an empty ChangeSet.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{log: &changeLog{}}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func (cs *ChangeSet) path(field string) string {
	return cs.prefix + "/" + pointerEscaper.Replace(field)
}

func (cs *ChangeSet) record(change Change) {
	cs.log.mu.Lock()
	defer cs.log.mu.Unlock()

	cs.log.changes = append(cs.log.changes, change)
}

func (cs *ChangeSet) recordValue(op ChangeOp, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrEncodingChangeFailed, err)
	}

	cs.record(Change{Op: op, Path: path, Value: raw})

	return nil
}

// Set records that field is set to value.
func (cs *ChangeSet) Set(field string, value any) error {
	if field == "" {
		return ErrEmptyFieldName
	}

	return cs.recordValue(ChangeOpSet, cs.path(field), value)
}

// Append records that value is appended to the array field.
func (cs *ChangeSet) Append(field string, value any) error {
	if field == "" {
		return ErrEmptyFieldName
	}

	return cs.recordValue(ChangeOpAppend, cs.path(field), value)
}

// Remove records that field is removed.
func (cs *ChangeSet) Remove(field string) error {
	if field == "" {
		return ErrEmptyFieldName
	}

	cs.record(Change{Op: ChangeOpRemove, Path: cs.path(field)})

	return nil
}

// RemoveAt records that the element at index of the array field is removed.
func (cs *ChangeSet) RemoveAt(field string, index int) error {
	if field == "" {
		return ErrEmptyFieldName
	}

	cs.record(Change{Op: ChangeOpRemove, Path: cs.path(field) + "/" + strconv.Itoa(index)})

	return nil
}

// Partial returns a ChangeSet scoped to the nested object stored in field.
func (cs *ChangeSet) Partial(field string) *ChangeSet {
	return &ChangeSet{prefix: cs.path(field), log: cs.log}
}

// PartialAt returns a ChangeSet scoped to the object at index of the array field.
func (cs *ChangeSet) PartialAt(field string, index int) *ChangeSet {
	return &ChangeSet{prefix: cs.path(field) + "/" + strconv.Itoa(index), log: cs.log}
}

// Changes returns the changes recorded within the scope of this ChangeSet, in recording order.
func (cs *ChangeSet) Changes() []Change {
	cs.log.mu.Lock()
	defer cs.log.mu.Unlock()

	scoped := make([]Change, 0, len(cs.log.changes))
	for _, change := range cs.log.changes {
		if cs.prefix == "" || change.Path == cs.prefix || strings.HasPrefix(change.Path, cs.prefix+"/") {
			scoped = append(scoped, change)
		}
	}

	return scoped
}

// Len returns the number of changes within the scope of this ChangeSet.
func (cs *ChangeSet) Len() int {
	return len(cs.Changes())
}

// IsEmpty reports whether no changes were recorded within the scope of this ChangeSet.
func (cs *ChangeSet) IsEmpty() bool {
	return cs.Len() == 0
}

func (cs *ChangeSet) operations() []patchOperation {
	changes := cs.Changes()
	operations := make([]patchOperation, 0, len(changes))

	for _, change := range changes {
		switch change.Op {
		case ChangeOpSet:
			// "add" replaces existing object members and creates missing ones
			operations = append(operations, patchOperation{Op: "add", Path: change.Path, Value: change.Value})
		case ChangeOpAppend:
			operations = append(operations, patchOperation{Op: "add", Path: change.Path + "/-", Value: change.Value})
		case ChangeOpRemove:
			operations = append(operations, patchOperation{Op: "remove", Path: change.Path})
		}
	}

	return operations
}

// Patch renders the scoped changes as an RFC 6902 JSON Patch document.
func (cs *ChangeSet) Patch() ([]byte, error) {
	patch, err := json.Marshal(cs.operations())
	if err != nil {
		return nil, errors.Join(ErrEncodingChangeFailed, err)
	}

	return patch, nil
}

// initializeArrays inserts an "add []" before the first append to an array that is null
// or missing in doc, unless an earlier change already wrote that path.
// Nil slices encode as null, so appending to them would fail otherwise.
func (cs *ChangeSet) initializeArrays(doc []byte) ([]patchOperation, error) {
	var root any
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, err
	}

	operations := cs.operations()
	prepared := make([]patchOperation, 0, len(operations))
	written := make(map[string]bool)

	for _, op := range operations {
		if op.Op == "add" && strings.HasSuffix(op.Path, "/-") {
			arrayPath := strings.TrimSuffix(op.Path, "/-")

			if !written[arrayPath] && !writtenBelow(written, arrayPath) {
				if value, found := lookupPointer(root, arrayPath); !found || value == nil {
					prepared = append(prepared, patchOperation{Op: "add", Path: arrayPath, Value: jsoniter.RawMessage("[]")})
				}
			}

			written[arrayPath] = true
		} else {
			written[op.Path] = true
		}

		prepared = append(prepared, op)
	}

	return prepared, nil
}

// writtenBelow reports whether path or one of its ancestors was written.
func writtenBelow(written map[string]bool, path string) bool {
	for p := range written {
		if strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// lookupPointer resolves an RFC 6901 JSON Pointer against a decoded JSON value.
func lookupPointer(root any, pointer string) (any, bool) {
	if pointer == "" {
		return root, true
	}

	current := root

	for _, segment := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		segment = pointerUnescaper.Replace(segment)

		switch node := current.(type) {
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}

			current = value
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}

			current = node[index]
		default:
			return nil, false
		}
	}

	return current, true
}

// Apply applies all changes of cs to original and returns the modified value.
//
// Either every change applies, or an error is returned and nothing is modified:
// the changes are applied to the JSON encoding of original, which is decoded into
// a fresh value only after the whole patch succeeded.
func Apply[T any](cs *ChangeSet, original T) (T, error) {
	var zero T

	if cs == nil || cs.IsEmpty() {
		return original, nil
	}

	doc, err := json.Marshal(original)
	if err != nil {
		return zero, errors.Join(ErrApplyingChangeSetFailed, ErrEncodingDocumentFailed, err)
	}

	operations, err := cs.initializeArrays(doc)
	if err != nil {
		return zero, errors.Join(ErrApplyingChangeSetFailed, err)
	}

	patchJSON, err := json.Marshal(operations)
	if err != nil {
		return zero, errors.Join(ErrApplyingChangeSetFailed, ErrEncodingChangeFailed, err)
	}

	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return zero, errors.Join(ErrApplyingChangeSetFailed, err)
	}

	patched, err := patch.Apply(doc)
	if err != nil {
		return zero, errors.Join(ErrApplyingChangeSetFailed, err)
	}

	var modified T
	if err := json.Unmarshal(patched, &modified); err != nil {
		return zero, errors.Join(ErrApplyingChangeSetFailed, ErrDecodingDocumentFailed, err)
	}

	return modified, nil
}
