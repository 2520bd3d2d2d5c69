package browser

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerValidatesName(t *testing.T) {
	for _, name := range []string{"chrome", "Edge", "chromium", "firefox", "WEBKIT"} {
		m, err := NewManager(Options{Name: name})
		require.NoError(t, err, name)
		assert.Equal(t, 10*time.Second, m.opts.Timeout)
	}

	_, err := NewManager(Options{Name: "opera"})
	assert.ErrorIs(t, err, ErrUnsupportedBrowser)
}

func TestJSString(t *testing.T) {
	assert.Equal(t, `"#user-name"`, jsString("#user-name"))
	assert.Equal(t, `"h3[data-test=\"error\"]"`, jsString(`h3[data-test="error"]`))
}

func TestChromeSessionScreenshot(t *testing.T) {
	if testing.Short() || os.Getenv("BDD_E2E") == "" {
		t.Skip("set BDD_E2E=1 to run browser tests")
	}

	m, err := NewManager(Options{Name: "chrome", Headless: true, Timeout: 20 * time.Second})
	require.NoError(t, err)

	s, err := m.NewSession()
	require.NoError(t, err)
	defer s.Quit()

	require.NoError(t, s.Navigate("data:text/html,<h1 id=t>hello</h1>"))
	texts, err := s.Texts("#t")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, texts)

	png, err := s.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	require.NoError(t, s.Quit())
	_, err = s.Screenshot()
	assert.ErrorIs(t, err, ErrSessionClosed)
}
