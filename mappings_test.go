package fecparse

import "testing"

func TestStaticMappingsLookupSchema(t *testing.T) {
	t.Parallel()

	m, err := NewStaticMappings(
		[]HeaderRule{
			{VersionPattern: "^8\\.", FormPattern: "^SA11A1$", Header: "form_type,transaction_id,amount,date"},
			{VersionPattern: ".*", FormPattern: "^F3XA$", Header: "form_type,filer_id,cash_on_hand"},
		},
		[]TypeRule{
			{VersionPattern: "^8\\.", FormPattern: "^SA11A1$", FieldPattern: "^amount$", Type: 'f'},
			{VersionPattern: "^8\\.", FormPattern: "^SA11A1$", FieldPattern: "^date$", Type: 'd'},
		},
	)
	if err != nil {
		t.Fatalf("NewStaticMappings() error = %v", err)
	}

	t.Run("matchWithTypedColumns", func(t *testing.T) {
		t.Parallel()

		schema, ok := m.LookupSchema("8.3", "SA11A1")
		if !ok {
			t.Fatalf("LookupSchema() ok = false, want true")
		}
		wantTypes := []byte{'s', 's', 'f', 'd'}
		if string(schema.Types) != string(wantTypes) {
			t.Fatalf("LookupSchema() Types = %q, want %q", schema.Types, wantTypes)
		}
	})

	t.Run("defaultsToStringType", func(t *testing.T) {
		t.Parallel()

		schema, ok := m.LookupSchema("8.3", "F3XA")
		if !ok {
			t.Fatalf("LookupSchema() ok = false, want true")
		}
		for i, typ := range schema.Types {
			if typ != 's' {
				t.Fatalf("Types[%d] = %q, want 's'", i, typ)
			}
		}
	})

	t.Run("caseInsensitiveFormMatch", func(t *testing.T) {
		t.Parallel()

		if _, ok := m.LookupSchema("8.3", "sa11a1"); !ok {
			t.Fatalf("LookupSchema() ok = false, want true for case-insensitive match")
		}
	})

	t.Run("unknownFormMisses", func(t *testing.T) {
		t.Parallel()

		if _, ok := m.LookupSchema("8.3", "ZZZZZ"); ok {
			t.Fatalf("LookupSchema() ok = true, want false for unknown form")
		}
	})

	t.Run("versionMismatchMisses", func(t *testing.T) {
		t.Parallel()

		if _, ok := m.LookupSchema("7.0", "SA11A1"); ok {
			t.Fatalf("LookupSchema() ok = true, want false for version mismatch")
		}
	})
}

func TestNewStaticMappingsInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewStaticMappings(
		[]HeaderRule{{VersionPattern: "(", FormPattern: ".*", Header: "a"}},
		nil,
	)
	if err == nil {
		t.Fatalf("NewStaticMappings() error = nil, want error for invalid regex")
	}
}
