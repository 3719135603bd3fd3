package workspace

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/panetree"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/ptysession"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/surface"
	"github.com/GriffinCanCode/menuterm/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	manager *Manager
	backend *testutil.MockBackend
	router  *ptysession.Router
	layout  *orchestrator.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	surfaces := surface.NewRegistry(surface.Options{})
	layout := orchestrator.New(orchestrator.Options{Freezer: surfaces, SettleDelay: time.Millisecond})
	backend := testutil.NewMockBackend(t)
	router := ptysession.NewRouter(nil)

	var n atomic.Int32
	backend.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(func(context.Context, int, int) string {
			return fmt.Sprintf("pty-%d", n.Add(1))
		}, nil).Maybe()

	opts := ptysession.Options{
		MaxRetries:    1,
		RetryDelay:    time.Millisecond,
		RestartDelay:  time.Millisecond,
		FlushInterval: time.Millisecond,
	}
	m := New(layout, surfaces, backend, router, opts)
	t.Cleanup(m.Shutdown)

	return &fixture{manager: m, backend: backend, router: router, layout: layout}
}

func TestOpenTabStartsSession(t *testing.T) {
	f := newFixture(t)

	tabID, paneID := f.manager.OpenTab()
	require.NotEmpty(t, tabID)

	info, ok := f.manager.Pane(paneID)
	require.True(t, ok)
	assert.Equal(t, tabID, info.TabID)
	assert.Equal(t, "pty-1", info.SessionID)
	assert.Equal(t, "active", info.State)

	leaves := f.layout.GetAllPanes(tabID)
	require.Len(t, leaves, 1)
	assert.Equal(t, "pty-1", leaves[0].SessionID, "session id is recorded in the tree")
}

func TestSplitMountsNewPane(t *testing.T) {
	f := newFixture(t)
	tabID, first := f.manager.OpenTab()

	second, err := f.manager.SplitPane(tabID, first, panetree.Horizontal)
	require.NoError(t, err)

	info, ok := f.manager.Pane(second)
	require.True(t, ok)
	assert.Equal(t, "pty-2", info.SessionID)
	f.backend.AssertNumberOfCalls(t, "Create", 2)
	assert.Equal(t, 2, f.router.Len())
}

func TestSplitErrorsPassThrough(t *testing.T) {
	f := newFixture(t)
	tabID, _ := f.manager.OpenTab()

	_, err := f.manager.SplitPane(tabID, "missing", panetree.Vertical)
	assert.ErrorIs(t, err, orchestrator.ErrPaneNotFound)
}

func TestClosePaneDisposesSession(t *testing.T) {
	f := newFixture(t)
	tabID, first := f.manager.OpenTab()
	second, _ := f.manager.SplitPane(tabID, first, panetree.Horizontal)

	require.NoError(t, f.manager.ClosePane(tabID, second))

	_, ok := f.manager.Pane(second)
	assert.False(t, ok)
	f.backend.AssertCalled(t, "Close", mock.Anything, "pty-2")
	assert.Equal(t, 1, f.router.Len())

	assert.ErrorIs(t, f.manager.ClosePane(tabID, first), orchestrator.ErrLastPane)
	_, ok = f.manager.Pane(first)
	assert.True(t, ok, "last pane stays mounted")
}

func TestCloseTabDisposesAll(t *testing.T) {
	f := newFixture(t)
	tabID, first := f.manager.OpenTab()
	_, _ = f.manager.SplitPane(tabID, first, panetree.Vertical)

	require.NoError(t, f.manager.CloseTab(tabID))

	f.backend.AssertCalled(t, "Close", mock.Anything, "pty-1")
	f.backend.AssertCalled(t, "Close", mock.Anything, "pty-2")
	assert.Equal(t, 0, f.router.Len())
	assert.Equal(t, 0, f.manager.Surfaces().Len())

	assert.ErrorIs(t, f.manager.CloseTab(tabID), orchestrator.ErrTabNotFound)
}

func TestInputReachesBackend(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Write", mock.Anything, "pty-1", "echo hi\r").Return(nil).Once()
	_, paneID := f.manager.OpenTab()

	require.NoError(t, f.manager.Input(paneID, "echo hi\r"))
	f.backend.AssertExpectations(t)

	assert.ErrorIs(t, f.manager.Input("missing", "x"), ErrPaneNotMounted)
}

func TestResizeReachesBackend(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Resize", mock.Anything, "pty-1", 132, 43).Return(nil).Once()
	_, paneID := f.manager.OpenTab()

	require.NoError(t, f.manager.Resize(paneID, 132, 43))
	f.backend.AssertExpectations(t)

	assert.ErrorIs(t, f.manager.Resize("missing", 80, 24), ErrPaneNotMounted)
}

func TestResizeHeldDuringSplit(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Resize", mock.Anything, "pty-1", 60, 24).Return(nil).Once()
	tabID, first := f.manager.OpenTab()

	f.manager.Surfaces().Freeze(tabID, []string{first})
	require.NoError(t, f.manager.Resize(first, 60, 24))
	f.backend.AssertNotCalled(t, "Resize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	f.manager.Surfaces().Unfreeze(tabID, []string{first})
	f.backend.AssertExpectations(t)
}

func TestOutputReachesSurface(t *testing.T) {
	f := newFixture(t)
	_, paneID := f.manager.OpenTab()

	f.router.Dispatch(ptysession.OutputEvent("pty-1", "$ "))

	require.Eventually(t, func() bool { return f.manager.Snapshot(paneID) == "$ " }, time.Second, time.Millisecond)
	assert.Empty(t, f.manager.Snapshot("missing"))
}

func TestExitRestartUpdatesTree(t *testing.T) {
	f := newFixture(t)
	tabID, paneID := f.manager.OpenTab()

	f.router.Dispatch(ptysession.ExitEvent("pty-1", 0))

	require.Eventually(t, func() bool {
		leaves := f.layout.GetAllPanes(tabID)
		return len(leaves) == 1 && leaves[0].SessionID == "pty-2"
	}, time.Second, time.Millisecond)
	assert.Contains(t, f.manager.Snapshot(paneID), "[Process exited with code 0]")
}

func TestRestartPaneReusesLiveSession(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Resize", mock.Anything, "pty-1", mock.Anything, mock.Anything).Return(nil).Once()
	tabID, paneID := f.manager.OpenTab()

	require.NoError(t, f.manager.RestartPane(tabID, paneID))

	info, ok := f.manager.Pane(paneID)
	require.True(t, ok)
	assert.Equal(t, "pty-1", info.SessionID)
	f.backend.AssertNumberOfCalls(t, "Create", 1)
	f.backend.AssertNotCalled(t, "Close", mock.Anything, "pty-1")

	assert.ErrorIs(t, f.manager.RestartPane("other-tab", paneID), ErrPaneNotMounted)
}

func TestSyncRemountsRecordedSession(t *testing.T) {
	f := newFixture(t)
	f.backend.On("Resize", mock.Anything, "pty-1", mock.Anything, mock.Anything).Return(nil).Once()
	tabID, paneID := f.manager.OpenTab()

	// Drop the mount but keep the backend session running
	f.manager.mu.Lock()
	mt := f.manager.mounts[paneID]
	delete(f.manager.mounts, paneID)
	f.manager.mu.Unlock()
	mt.session.Detach()

	f.manager.Sync(tabID)

	info, ok := f.manager.Pane(paneID)
	require.True(t, ok)
	assert.Equal(t, "pty-1", info.SessionID)
	f.backend.AssertNumberOfCalls(t, "Create", 1)
}

func TestConcurrentSplitsAndSyncsMountEveryPane(t *testing.T) {
	f := newFixture(t)
	tabID, first := f.manager.OpenTab()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.manager.SplitPane(tabID, first, panetree.Horizontal)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			f.manager.Sync(tabID)
		}()
	}
	wg.Wait()

	leaves := f.layout.GetAllPanes(tabID)
	require.Len(t, leaves, 9)
	for _, leaf := range leaves {
		info, ok := f.manager.Pane(leaf.ID)
		if assert.True(t, ok, "pane %s mounted", leaf.ID) {
			assert.Equal(t, "active", info.State)
		}
	}
	f.backend.AssertNumberOfCalls(t, "Create", 9)
	f.backend.AssertNotCalled(t, "Close", mock.Anything, mock.Anything)
}

func TestClosedPaneStaysUnmountedUnderConcurrentSync(t *testing.T) {
	f := newFixture(t)
	tabID, first := f.manager.OpenTab()
	var closing []string
	for i := 0; i < 4; i++ {
		paneID, err := f.manager.SplitPane(tabID, first, panetree.Vertical)
		require.NoError(t, err)
		closing = append(closing, paneID)
	}

	var wg sync.WaitGroup
	for _, paneID := range closing {
		wg.Add(2)
		go func(paneID string) {
			defer wg.Done()
			assert.NoError(t, f.manager.ClosePane(tabID, paneID))
		}(paneID)
		go func() {
			defer wg.Done()
			f.manager.Sync(tabID)
		}()
	}
	wg.Wait()

	for _, paneID := range closing {
		_, ok := f.manager.Pane(paneID)
		assert.False(t, ok, "pane %s remounted after close", paneID)
	}
	_, ok := f.manager.Pane(first)
	assert.True(t, ok)
	f.backend.AssertNumberOfCalls(t, "Create", 5)
	assert.Equal(t, 1, f.router.Len())
}
