package coins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveMatchesKeywordsCaseInsensitively(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, "BTCUSDT", table.Resolve("Bitcoin Up or Down - 3PM ET"))
	assert.Equal(t, "ETHUSDT", table.Resolve("will ETH close above 4000?"))
	assert.Equal(t, "SOLUSDT", table.Resolve("solana-up-or-down-hourly"))
	assert.Equal(t, "", table.Resolve("US election winner 2028"))
}

func TestResolveFirstMatchWins(t *testing.T) {
	table := NewTable([]Mapping{
		{Keywords: []string{"coin"}, Symbol: "FIRSTUSDT"},
		{Keywords: []string{"bitcoin"}, Symbol: "BTCUSDT"},
	})

	// "bitcoin" contains "coin", so the earlier mapping takes it.
	assert.Equal(t, "FIRSTUSDT", table.Resolve("bitcoin hourly"))
}

func TestNewTableDropsUnusableMappings(t *testing.T) {
	table := NewTable([]Mapping{
		{Keywords: []string{"btc"}, Symbol: ""},
		{Keywords: []string{" ", ""}, Symbol: "ETHUSDT"},
		{Keywords: []string{" doge "}, Symbol: " dogeusdt "},
	})

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "DOGEUSDT", table.Resolve("DOGE price jump"))
}

func TestResolveNilTable(t *testing.T) {
	var table *Table
	assert.Equal(t, "", table.Resolve("bitcoin"))
	assert.Equal(t, 0, table.Len())
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.yaml")
	content := `
- keywords: ["bitcoin", "btc"]
  symbol: BTCUSDT
- keywords: ["ethereum"]
  symbol: ethusdt
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "ETHUSDT", table.Resolve("Ethereum Up or Down"))
}

func TestLoadTableErrors(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0o644))
	_, err = LoadTable(empty)
	assert.Error(t, err)
}
