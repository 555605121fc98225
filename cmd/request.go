package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"venue-client/internal/api"
	"venue-client/internal/config"
	"venue-client/internal/console"
	"venue-client/internal/identity"
	"venue-client/internal/lifecycle"
	"venue-client/internal/logger"
	"venue-client/internal/notify"
	"venue-client/internal/queue"
	"venue-client/internal/request"
	"venue-client/internal/search"
	"venue-client/internal/track"
)

const beaconTimeout = 5 * time.Second

type requestOptions struct {
	query     string
	sessionID string
	tableID   string
	pick      int
}

var requestCmd = &cobra.Command{
	Use:   "request [query]",
	Short: "Search the catalog and request songs",
	Long: `Opens the request screen: type to search, pick a song with the arrow keys
and press Enter to add it to the queue. The table session is kept alive
while you use the screen and is closed when you quit.

With --pick N the search runs once and the N-th result is requested without
opening the screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := requestOptions{query: strings.TrimSpace(strings.Join(args, " "))}
		opts.sessionID, _ = cmd.Flags().GetString("session")
		opts.tableID, _ = cmd.Flags().GetString("table")
		opts.pick, _ = cmd.Flags().GetInt("pick")

		if opts.pick > 0 {
			return runPick(cmd.Context(), cmd.OutOrStdout(), opts)
		}
		return runRequestScreen(cmd.Context(), opts)
	},
}

func init() {
	requestCmd.Flags().String("session", "", "session id to use instead of the saved one")
	requestCmd.Flags().String("table", "", "table id to join when no session is saved")
	requestCmd.Flags().Int("pick", 0, "request the N-th search result and exit")
	rootCmd.AddCommand(requestCmd)
}

// resolveIdentity picks the session to order under, joining the table when
// only a table is known.
func resolveIdentity(ctx context.Context, ids *identity.Store, opts requestOptions) (identity.Identity, error) {
	stored := ids.Current()
	id := ids.Resolve(opts.sessionID, opts.tableID)
	switchedTable := opts.sessionID == "" && opts.tableID != "" && opts.tableID != stored.TableID

	if id.HasSession() && !switchedTable {
		return id, nil
	}
	if id.TableID == "" {
		return identity.Identity{}, errors.New("no table session: run 'venue-client join <tableId>' first")
	}
	res, err := joinTable(ctx, id.TableID)
	if err != nil {
		return identity.Identity{}, err
	}
	return res.Identity, nil
}

// runPick searches once and requests one result.
func runPick(ctx context.Context, out io.Writer, opts requestOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.query == "" {
		return errors.New("--pick needs a search query")
	}

	cfg := config.Get()
	ids := identityStore()
	id, err := resolveIdentity(ctx, ids, opts)
	if err != nil {
		return err
	}

	client := newClient()
	doc, err := client.SearchTracks(ctx, opts.query)
	if err != nil {
		return fmt.Errorf("✗ %s", api.HumanMessage(err, "Search failed."))
	}
	tracks := search.Normalize(doc, cfg.Search.Limit)
	fmt.Fprintln(out, search.State{Query: opts.query, Tracks: tracks}.Status())
	for i, t := range tracks {
		fmt.Fprintf(out, "  %2d. %s — %s (%s)\n", i+1, t.Title, t.ArtistNames, track.FormatDuration(t.DurationMs))
	}
	if opts.pick > len(tracks) {
		return fmt.Errorf("✗ no result #%d", opts.pick)
	}

	orch := request.New(client, queue.NewTracker(client), request.Options{Notifier: printNotifier{out: out}})
	defer orch.Close()

	if _, err := orch.Submit(ctx, tracks[opts.pick-1], id); err != nil {
		log.Debug().Err(err).Str("session_id", id.SessionID).Msg("pick failed")
		if errors.Is(err, request.ErrSessionExpired) || lifecycle.IsSessionExpired(err) {
			if cerr := ids.Clear(); cerr != nil {
				log.Warn().Err(cerr).Msg("purge identity")
			}
		}
		return pickError(err)
	}
	return nil
}

// pickError turns a submit failure into the line printed on exit.
func pickError(err error) error {
	switch {
	case errors.Is(err, request.ErrSessionExpired), lifecycle.IsSessionExpired(err):
		return errors.New(lifecycle.ExpiredMessage)
	case errors.Is(err, request.ErrSessionClosed):
		return errors.New(request.ClosedMessage)
	case errors.Is(err, request.ErrNoSession):
		return errors.New(request.NoSessionMessage)
	case errors.Is(err, request.ErrUnexpectedResponse):
		return errors.New(request.UnexpectedMessage)
	}
	return errors.New(api.HumanMessage(err, request.FailureMessage))
}

type printNotifier struct {
	out io.Writer
}

func (p printNotifier) Show(n notify.Notice) {
	fmt.Fprintln(p.out, noticeLine(n))
}

// requestApp wires the interactive request screen.
type requestApp struct {
	cfg      *config.Config
	identity identity.Identity

	screen   *screen
	toaster  *notify.Toaster
	session  *lifecycle.Controller
	searcher *search.Controller
	tracker  *queue.Tracker
	orch     *request.Orchestrator
	group    *errgroup.Group
	cancel   context.CancelFunc

	mu         sync.Mutex
	editor     console.LineEditor
	stopPoll   context.CancelFunc
	away       bool
	submitting atomic.Bool
}

func runRequestScreen(parent context.Context, opts requestOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg := config.Get()
	ids := identityStore()
	id, err := resolveIdentity(parent, ids, opts)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Log.File) == "" {
		logCfg := cfg.Log
		logCfg.File = filepath.Join(config.Dir(), "venue-client.log")
		closer, err := logger.Setup(logCfg)
		if err != nil {
			return fmt.Errorf("init screen logger: %w", err)
		}
		defer closer.Close()
	}

	in, err := console.Open(os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("the request screen needs a terminal, use --pick for scripts: %w", err)
	}
	defer in.Restore()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	client := newClient()
	beacon := api.NewBeacon(client, beaconTimeout)

	app := &requestApp{
		cfg:      cfg,
		identity: id,
		screen:   newScreen(os.Stdout, console.Width(os.Stdout, 80), id.TableID),
		tracker:  queue.NewTracker(client),
		cancel:   cancel,
	}
	app.toaster = notify.NewToaster(cfg.UI.NoticeTTL, app.screen.setNotice)
	nav := screenNavigator{app: app}

	app.session = lifecycle.New(lifecycle.Config{
		HeartbeatInterval: cfg.Session.HeartbeatInterval,
		ActivityWindow:    cfg.Session.ActivityWindow,
		RedirectDelay:     cfg.Session.RedirectDelay,
		PingTimeout:       cfg.Server.Timeout,
	}, lifecycle.Options{
		Pinger:    client,
		Closer:    beacon,
		Notifier:  app.toaster,
		Navigator: nav,
		Identity:  ids,
	})
	app.searcher = search.New(search.Config{
		Debounce: cfg.Search.Debounce,
		Limit:    cfg.Search.Limit,
		Timeout:  cfg.Server.Timeout,
	}, client, app.toaster, app.screen.setSearch)
	app.orch = request.New(client, app.tracker, request.Options{
		Session:     app.session,
		Notifier:    app.toaster,
		Search:      searchClearer{app: app},
		Navigator:   nav,
		ReturnAfter: cfg.UI.ReturnAfter,
	})

	if err := app.session.Start(id.SessionID); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	app.group = g
	g.Go(func() error { return app.readKeys(gctx, in.Keys(gctx)) })
	g.Go(func() error { return app.watchSignals(gctx) })
	g.Go(func() error { return app.watchSession(gctx) })
	if addr := strings.TrimSpace(cfg.Metrics.Addr); addr != "" {
		g.Go(func() error { return serveMetrics(gctx, addr) })
	}

	if opts.query != "" {
		app.setQuery(opts.query)
	}
	app.screen.render()

	err = g.Wait()

	app.stopPolling()
	app.searcher.Close()
	app.orch.Close()
	app.session.Teardown()
	app.toaster.Close()
	in.Restore()
	if !beacon.Flush(beaconTimeout) {
		log.Warn().Msg("session close still in flight at exit")
	}

	fmt.Print(clearScreen)
	if app.session.State() == lifecycle.StateExpired {
		fmt.Println(lifecycle.ExpiredMessage)
	} else {
		fmt.Println("👋 See you next time!")
	}
	return err
}

func (a *requestApp) readKeys(ctx context.Context, keys <-chan console.Key) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				a.quit("stdin closed")
				return nil
			}
			a.handleKey(ctx, k)
		}
	}
}

func (a *requestApp) handleKey(ctx context.Context, k console.Key) {
	switch k.Kind {
	case console.KeyFocusOut:
		a.session.SetVisible(false)
		return
	case console.KeyFocusIn:
		a.session.SetVisible(true)
		return
	}

	a.session.Touch()
	a.mu.Lock()
	wasAway := a.away
	a.away = false
	a.mu.Unlock()
	if wasAway {
		a.session.SetVisible(true)
		if !a.session.State().Terminal() {
			a.toaster.Cancel()
		}
	}

	switch k.Kind {
	case console.KeyInterrupt, console.KeyQuit:
		a.quit("quit")
		return
	case console.KeySuspend:
		a.mu.Lock()
		a.away = true
		a.mu.Unlock()
		a.session.SetVisible(false)
		a.toaster.Show(notify.Notice{Level: notify.LevelInfo, Text: "Away. Press any key to come back.", Sticky: true})
		return
	case console.KeyUp:
		a.screen.move(-1)
	case console.KeyDown:
		a.screen.move(1)
	case console.KeyTab:
		a.showMine(ctx)
		return
	case console.KeyEnter:
		if t, ok := a.screen.selectedTrack(); ok {
			a.submit(ctx, t)
		}
	case console.KeyEscape:
		a.setQuery("")
	default:
		a.mu.Lock()
		changed := a.editor.Apply(k)
		q := a.editor.String()
		a.mu.Unlock()
		if changed {
			a.screen.setQuery(q)
			a.searcher.SetQuery(q)
		}
	}
	a.screen.render()
}

func (a *requestApp) setQuery(q string) {
	a.mu.Lock()
	a.editor.Set(q)
	a.mu.Unlock()
	a.screen.setQuery(q)
	if q == "" {
		a.searcher.Clear()
		return
	}
	a.searcher.SetQuery(q)
}

func (a *requestApp) submit(ctx context.Context, t track.Track) {
	if !a.submitting.CompareAndSwap(false, true) {
		return
	}
	a.group.Go(func() error {
		defer a.submitting.Store(false)
		out, err := a.orch.Submit(ctx, t, a.identity)
		if err != nil {
			log.Debug().Err(err).Str("title", t.Title).Msg("submission not completed")
			return nil
		}
		a.watchPosition(ctx, out)
		return nil
	})
}

// watchPosition follows the latest request until it leaves the queue.
func (a *requestApp) watchPosition(ctx context.Context, out *request.Outcome) {
	pollCtx, stop := context.WithCancel(ctx)
	a.mu.Lock()
	if a.stopPoll != nil {
		a.stopPoll()
	}
	a.stopPoll = stop
	a.mu.Unlock()

	title := out.Payload.Title
	a.screen.setPosition(positionLine(title, out.Position))

	poller := queue.NewPoller(a.tracker, a.cfg.Queue.PollInterval,
		func(p queue.Position) {
			if p.Ranked() {
				a.screen.setPosition(positionLine(title, p))
			}
		},
		func(err error) bool {
			return !a.session.HandleError(err)
		},
	)
	a.group.Go(func() error {
		defer stop()
		last, err := poller.Run(pollCtx, out.Request.ID)
		if err == nil && !last.Ranked() {
			a.screen.setPosition(fmt.Sprintf("%q is no longer waiting in the queue", title))
		}
		return nil
	})
}

func positionLine(title string, p queue.Position) string {
	line := fmt.Sprintf("%q %s", title, p)
	if p.Status == api.StatusPlaying {
		line += " · playing now"
	}
	return line
}

func (a *requestApp) showMine(ctx context.Context) {
	a.group.Go(func() error {
		reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.Timeout)
		defer cancel()

		mine, err := a.tracker.Mine(reqCtx, a.identity.SessionID)
		if err != nil {
			if !a.session.HandleError(err) && ctx.Err() == nil {
				a.toaster.Show(notify.Error(api.HumanMessage(err, "Could not load your requests.")))
			}
			return nil
		}

		lines := make([]string, 0, len(mine))
		for _, r := range mine {
			lines = append(lines, fmt.Sprintf("%s — %s [%s]", r.Title, r.Artist, r.Status))
		}
		a.screen.setMine(lines)
		a.toaster.Show(notify.Info(fmt.Sprintf("You have %d active request(s).", len(mine))))
		return nil
	})
}

func (a *requestApp) stopPolling() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopPoll != nil {
		a.stopPoll()
		a.stopPoll = nil
	}
}

// quit closes the session (when configured) and ends the screen. It may run
// more than once; only one close is sent.
// quit closes the session when configured to. watchSession then ends the
// screen; without a close the screen ends here.
func (a *requestApp) quit(reason string) {
	if a.cfg.Session.CloseOnExit && a.session.Exit(reason) {
		return
	}
	a.cancel()
}

// watchSession ends the screen once the session is closed. An expired
// session keeps its overlay until the redirect closes the window.
func (a *requestApp) watchSession(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-a.session.Done():
		if a.session.State() == lifecycle.StateClosed {
			log.Debug().Str("session_id", a.identity.SessionID).Msg("session closed, leaving screen")
			a.cancel()
		}
	}
	return nil
}

// watchSignals treats termination signals as leaving, and SIGCONT as the
// screen becoming visible again after a job-control stop.
func (a *requestApp) watchSignals(ctx context.Context) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGCONT)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigs:
			if sig == syscall.SIGCONT {
				a.session.SetVisible(true)
				a.screen.render()
				continue
			}
			a.quit(sig.String())
			return nil
		}
	}
}

// screenNavigator moves the screen for the lifecycle and the orchestrator.
type screenNavigator struct {
	app *requestApp
}

func (n screenNavigator) Navigate(route string) {
	log.Debug().Str("route", route).Msg("navigate")
	n.app.screen.setStatus(n.app.session.State().String())
	n.app.screen.reset()
}

func (n screenNavigator) CloseWindow() {
	n.app.cancel()
}

// searchClearer resets the query line along with the search results.
type searchClearer struct {
	app *requestApp
}

func (c searchClearer) Clear() {
	c.app.mu.Lock()
	c.app.editor.Set("")
	c.app.mu.Unlock()
	c.app.screen.setQuery("")
	c.app.searcher.Clear()
}
