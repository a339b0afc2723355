package obf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literal(s string, mode Mode) func() *String {
	key := SaltFor(uint64(len(s)))
	cipher := Seal(s, mode, key)
	return func() *String { return Sealed(cipher, mode, key) }
}

func newModuleTable() *Table {
	return NewTable(map[int]func() *String{
		0x0000: literal("sys_net", Light),
		0x0001: literal("cellHttp", Heavy),
		0x0003: literal("cellSsl", Light),
		0xf00a: literal("cellCelpEnc", Heavy),
		0x0002: nil,
	})
}

func TestTableLookup(t *testing.T) {
	tbl := newModuleTable()

	s := tbl.Lookup(0x0001)
	require.NotNil(t, s)
	assert.True(t, s.Locked())
	assert.Equal(t, "cellHttp", s.Text())
	s.Destroy()

	assert.Nil(t, tbl.Lookup(0x0002))
	assert.Nil(t, tbl.Lookup(0xffff))
	assert.False(t, tbl.Has(0x0002))
	assert.True(t, tbl.Has(0xf00a))
}

func TestTableLookupReturnsFreshCopies(t *testing.T) {
	tbl := newModuleTable()
	a := tbl.Lookup(0x0000)
	b := tbl.Lookup(0x0000)
	a.Unlock()
	assert.True(t, b.Locked())
	assert.Equal(t, "sys_net", b.Text())
	a.Destroy()
	b.Destroy()
}

func TestTableOrdering(t *testing.T) {
	tbl := newModuleTable()
	assert.Equal(t, []int{0x0000, 0x0001, 0x0003, 0xf00a}, tbl.IDs())
	assert.Equal(t, 4, tbl.Len())

	ids := tbl.IDs()
	ids[0] = 42
	assert.Equal(t, 0, tbl.IDs()[0])
}

func TestTableEach(t *testing.T) {
	tbl := newModuleTable()
	var got []string
	var kept []*String
	tbl.Each(func(id int, s *String) bool {
		got = append(got, s.Text())
		kept = append(kept, s)
		return true
	})
	assert.Equal(t, []string{"sys_net", "cellHttp", "cellSsl", "cellCelpEnc"}, got)
	for _, s := range kept {
		assert.True(t, s.wiped)
	}

	var n int
	tbl.Each(func(int, *String) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)
}
