// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package containers declares the attribute container types this
// storage engine knows about and the static schema registry both
// backends consult to decide how a container's fields are persisted.
//
// The registry is a build-time table, not something callers extend at
// runtime: every container type a producer can write must have an
// entry here, or the store rejects it with
// errors.ErrUnsupportedContainerType.
package containers

// SemanticType is the declared type of one schema field. Scalar kinds
// (Bool, Int, Str, Timestamp) and AttributeContainerIdentifier map onto
// a native SQL column type; ListStr and Opaque serialize to their
// textual representation.
type SemanticType string

const (
	Bool                         SemanticType = "bool"
	Int                          SemanticType = "int"
	Str                          SemanticType = "str"
	Timestamp                    SemanticType = "timestamp"
	ListStr                      SemanticType = "list<str>"
	AttributeContainerIdentifier SemanticType = "AttributeContainerIdentifier"
	Opaque                       SemanticType = "opaque"
)

// Field is one entry of a container type's ordered schema.
type Field struct {
	Name string
	Type SemanticType
}

// Reference describes a field that holds the identifier of another
// attribute container. RuntimeField is the name producers/readers use
// (holds an identifiers.Identifier); SerializedField is the name the
// row/blob persists the raw sequence number under.
type Reference struct {
	ReferencedType  string
	RuntimeField    string
	SerializedField string
}

// Container type constants. Names match the original plaso attribute
// container type strings so the schema table below reads the same as
// its source.
const (
	TypeEvent                   = "event"
	TypeEventDataStream         = "event_data_stream"
	TypeEventSource             = "event_source"
	TypeEventTag                = "event_tag"
	TypeExtractionWarning       = "extraction_warning"
	TypeRecoveryWarning         = "recovery_warning"
	TypeAnalysisWarning         = "analysis_warning"
	TypePreprocessingWarning    = "preprocessing_warning"
	TypeWindowsEventlogProvider = "windows_eventlog_provider"
	TypeSessionStart            = "session_start"
	TypeSessionCompletion       = "session_completion"
	TypeSessionConfiguration    = "session_configuration"
	TypeSystemConfiguration     = "system_configuration"
)

type schemaEntry struct {
	fields     []Field
	references []Reference
}

// registry is the static container type -> schema table, grounded on
// sqlite_file.py's _CONTAINER_SCHEMAS and
// _CONTAINER_SCHEMA_IDENTIFIER_MAPPINGS. Types with a nil fields slice
// always take the legacy blob path (no declared schema), matching the
// original leaving them out of _CONTAINER_SCHEMAS entirely.
var registry = map[string]schemaEntry{
	TypeEvent: {
		fields: []Field{
			{Name: "event_data_row_identifier", Type: AttributeContainerIdentifier},
			{Name: "date_time", Type: Opaque},
			{Name: "timestamp", Type: Timestamp},
			{Name: "timestamp_desc", Type: Str},
		},
		references: []Reference{
			{ReferencedType: TypeEventDataStream, RuntimeField: "event_data", SerializedField: "event_data_row_identifier"},
		},
	},
	TypeEventDataStream: {
		fields: []Field{
			{Name: "path_spec", Type: Opaque},
			{Name: "md5_hash", Type: Str},
			{Name: "sha1_hash", Type: Str},
			{Name: "sha256_hash", Type: Str},
			{Name: "file_entropy", Type: Str},
			{Name: "yara_match", Type: ListStr},
		},
	},
	TypeEventSource: {
		fields: []Field{
			{Name: "data_type", Type: Str},
			{Name: "file_entry_type", Type: Str},
			{Name: "path_spec", Type: Opaque},
		},
	},
	TypeEventTag: {
		fields: []Field{
			{Name: "event_row_identifier", Type: AttributeContainerIdentifier},
			{Name: "labels", Type: ListStr},
		},
		references: []Reference{
			{ReferencedType: TypeEvent, RuntimeField: "event", SerializedField: "event_row_identifier"},
		},
	},
	TypeExtractionWarning: {
		fields: []Field{
			{Name: "message", Type: Str},
			{Name: "parser_chain", Type: Str},
			{Name: "path_spec", Type: Opaque},
		},
	},
	TypeRecoveryWarning: {
		fields: []Field{
			{Name: "message", Type: Str},
			{Name: "parser_chain", Type: Str},
			{Name: "path_spec", Type: Opaque},
		},
	},
	TypeAnalysisWarning: {
		fields: []Field{
			{Name: "message", Type: Str},
			{Name: "plugin_name", Type: Str},
		},
	},
	TypePreprocessingWarning: {
		fields: []Field{
			{Name: "message", Type: Str},
			{Name: "plugin_name", Type: Str},
			{Name: "path_spec", Type: Opaque},
		},
	},
	TypeWindowsEventlogProvider: {
		fields: []Field{
			{Name: "system_configuration_row_identifier", Type: AttributeContainerIdentifier},
			{Name: "log_source", Type: Str},
			{Name: "log_type", Type: Str},
			{Name: "category_message_files", Type: ListStr},
			{Name: "event_message_files", Type: ListStr},
			{Name: "parameter_message_files", Type: ListStr},
		},
		references: []Reference{
			{ReferencedType: TypeSystemConfiguration, RuntimeField: "system_configuration", SerializedField: "system_configuration_row_identifier"},
		},
	},
	// Session bookkeeping containers have no declared schema: they
	// always take the legacy blob path, matching the original's own
	// TODO about never having grown a _CONTAINER_SCHEMAS entry for them.
	TypeSessionStart:         {},
	TypeSessionCompletion:    {},
	TypeSessionConfiguration: {},
	TypeSystemConfiguration:  {},
}

// sessionStoreOnly lists container types that exist only in a
// session-scoped store (storage_type == "session"). Everything else is
// shared between session and task stores; the original's task-only set
// is empty, and this registry mirrors that.
var sessionStoreOnly = map[string]bool{
	TypeSessionStart:      true,
	TypeSessionCompletion: true,
	TypeEventSource:       true,
}

// Fields returns the ordered schema for containerType and whether the
// type is declared at all. A declared type with a nil/empty field list
// has no schema-path columns and always serializes via the legacy blob
// path.
func Fields(containerType string) ([]Field, bool) {
	entry, ok := registry[containerType]
	if !ok {
		return nil, false
	}
	return entry.fields, true
}

// HasSchema reports whether containerType has a non-empty declared
// schema (as opposed to always taking the legacy blob path).
func HasSchema(containerType string) bool {
	entry, ok := registry[containerType]
	return ok && len(entry.fields) > 0
}

// References returns the reference-field mappings declared for
// containerType, or nil if it declares none.
func References(containerType string) []Reference {
	return registry[containerType].references
}

// IsKnownType reports whether containerType is present in the schema
// registry at all (declared or legacy-only).
func IsKnownType(containerType string) bool {
	_, ok := registry[containerType]
	return ok
}

// IsSessionStoreOnly reports whether containerType may only appear in
// a session-scoped store.
func IsSessionStoreOnly(containerType string) bool {
	return sessionStoreOnly[containerType]
}

// ColumnType maps a SemanticType onto its SQL column type. Scalar types
// get their native type, and AttributeContainerIdentifier gets INTEGER,
// since a reference column holds the referenced row's sequence number;
// it does not take the TEXT fallback. ListStr, Opaque and any other
// type fall back to TEXT, storing their serialized representation.
func ColumnType(t SemanticType) string {
	switch t {
	case Bool, Int:
		return "INTEGER"
	case Timestamp:
		return "BIGINT"
	case Str:
		return "TEXT"
	case AttributeContainerIdentifier:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// AllTypes returns every container type name declared in the registry,
// in a stable order, for table-bootstrap iteration on store Open.
func AllTypes() []string {
	return []string{
		TypeEvent,
		TypeEventDataStream,
		TypeEventSource,
		TypeEventTag,
		TypeExtractionWarning,
		TypeRecoveryWarning,
		TypeAnalysisWarning,
		TypePreprocessingWarning,
		TypeWindowsEventlogProvider,
		TypeSessionStart,
		TypeSessionCompletion,
		TypeSessionConfiguration,
		TypeSystemConfiguration,
	}
}
