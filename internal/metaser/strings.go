package metaser

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

type StringID uint32

// stringTable интернирует строки одного блоба. После seal строки отсортированы
// и ID равен позиции в таблице, поэтому таблица на диске детерминирована.
type stringTable struct {
	byID   []string
	index  map[string]StringID
	sealed bool
}

func newStringTable() *stringTable {
	return &stringTable{index: make(map[string]StringID)}
}

// add регистрирует строку до seal. Повторы игнорируются.
func (t *stringTable) add(s string) {
	if t.sealed {
		panic("metaser: add after seal")
	}
	if _, ok := t.index[s]; ok {
		return
	}
	t.index[s] = 0
	t.byID = append(t.byID, s)
}

func (t *stringTable) seal() error {
	slices.SortFunc(t.byID, strings.Compare)
	for i, s := range t.byID {
		id, err := safecast.Conv[StringID](i)
		if err != nil {
			return fmt.Errorf("string table too large: %w", err)
		}
		t.index[s] = id
	}
	t.sealed = true
	return nil
}

func (t *stringTable) id(s string) (StringID, bool) {
	id, ok := t.index[s]
	return id, ok
}

// Lookup возвращает строку по ID.
func (t *stringTable) lookup(id StringID) (string, bool) {
	if int(id) >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

func (t *stringTable) Len() int { return len(t.byID) }

func (t *stringTable) write(e *Encoder) {
	e.Strings(t.byID)
}

// readStringTable читает таблицу и проверяет строгий порядок.
func readStringTable(d *Decoder) (*stringTable, error) {
	values := d.Strings()
	if err := d.Err(); err != nil {
		return nil, err
	}
	t := &stringTable{byID: values, index: make(map[string]StringID, len(values)), sealed: true}
	for i, s := range values {
		if i > 0 && values[i-1] >= s {
			return nil, fmt.Errorf("string table out of order at %d", i)
		}
		id, err := safecast.Conv[StringID](i)
		if err != nil {
			return nil, fmt.Errorf("string table too large: %w", err)
		}
		t.index[s] = id
	}
	return t, nil
}
