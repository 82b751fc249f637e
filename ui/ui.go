// Package ui provides the word board UI for wordboard.
package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/wordboard/internal/speech"
	"github.com/dgnsrekt/wordboard/internal/status"
	"github.com/dgnsrekt/wordboard/internal/words"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	te "github.com/muesli/termenv"
	"github.com/sahilm/fuzzy"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show notes like "copied"
	ellipsis             = "…"

	urlRow       = 1
	controlsRow  = 2
	headerHeight = 4

	urlPlaceholder = "https://example.com/common_words.txt"
	maxVoiceWidth  = 36
	factorWidth    = 5
	defaultWidth   = 80
)

// NewProgram returns a new Tea program. engine may be nil, in which case
// unavailable explains why there is no speech.
func NewProgram(cfg Config, engine speech.Engine, unavailable error) *tea.Program {
	log.Debug(
		"Starting wordboard",
		"url", cfg.URL,
		"mouse", cfg.EnableMouse,
		"speech", engine != nil,
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, engine, unavailable)
	return tea.NewProgram(m, opts...)
}

type (
	loadMsg        struct{}
	wordsLoadedMsg struct {
		gen   uint64
		url   string
		words []string
		err   error
	}
	speakWordMsg       struct{ word string }
	speechDoneMsg      speech.Done
	voicesRefreshedMsg struct {
		gen    uint64
		voices []speech.Voice
	}
	voicesChangedMsg struct{}
	clearNoteMsg     struct{ id int }
)

// focusArea is the control that receives keyboard input.
type focusArea int

const (
	focusURL focusArea = iota
	focusLoad
	focusVoice
	focusRate
	focusPitch
	focusBoard
	numFocusAreas
)

func (f focusArea) String() string {
	return [...]string{"url", "load", "voice", "rate", "pitch", "board"}[f]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int

	// voiceRequests counts voice list requests handed out.
	voiceRequests uint64
}

type model struct {
	common *commonModel
	ctx    context.Context
	cancel context.CancelFunc

	loader  *words.Loader
	loadGen uint64
	loading bool
	status  *status.Reporter

	engine        speech.Engine
	registry      *speech.Registry
	invoker       *speech.Invoker
	speechDone    chan speech.Done
	voicesChanged chan struct{}

	// voice is the selector value: an index into voices, or "" when there
	// are none. voices always matches the registry snapshot.
	voices    []speech.Voice
	voice     string
	voicesGen uint64

	focus focusArea
	url   textinput.Model
	rate  textinput.Model
	pitch textinput.Model
	board board

	searching bool
	search    textinput.Model

	speaking     bool
	speakingSeq  uint64
	speakingWord string

	note   string
	noteID int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

func newModel(cfg Config, engine speech.Engine, unavailable error) model {
	ctx, cancel := context.WithCancel(context.Background())

	var opts []words.Option
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, words.WithTimeout(cfg.HTTPTimeout))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, words.WithUserAgent(cfg.UserAgent))
	}

	registry := speech.NewRegistry(engine)
	done := make(chan speech.Done, 8)
	invoker := speech.NewInvoker(engine, registry)
	invoker.OnDone = func(d speech.Done) {
		select {
		case done <- d:
		case <-ctx.Done():
		}
	}

	url := textinput.New()
	url.Prompt = ""
	url.Placeholder = urlPlaceholder
	url.CharLimit = 2048
	url.SetValue(cfg.URL)
	url.Focus()

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "find a word"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	h := help.New()
	if !te.HasDarkBackground() {
		h.Styles.ShortKey = h.Styles.ShortKey.Foreground(gray)
	}

	m := model{
		common:        &commonModel{cfg: cfg},
		ctx:           ctx,
		cancel:        cancel,
		loader:        words.NewLoader(opts...),
		status:        status.NewReporter(),
		engine:        engine,
		registry:      registry,
		invoker:       invoker,
		speechDone:    done,
		voicesChanged: make(chan struct{}, 1),
		url:           url,
		rate:          newFactorInput(cfg.Rate),
		pitch:         newFactorInput(cfg.Pitch),
		board:         newBoard(),
		search:        search,
		spinner:       sp,
		help:          h,
		keys:          newKeyMap(),
	}

	if engine == nil {
		reason := "no speech engine"
		if unavailable != nil {
			reason, _, _ = strings.Cut(unavailable.Error(), "\n")
		}
		m.status.Set(status.NewUnsupported(reason))
	}
	return m
}

func newFactorInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Width = factorWidth
	ti.CharLimit = 8
	if value == "" {
		value = "1"
	}
	ti.SetValue(value)
	return ti
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForSpeech(m.speechDone)}

	if m.engine != nil {
		cmds = append(cmds, m.refreshVoices())
		if w, ok := m.engine.(speech.VoiceWatcher); ok {
			cmds = append(cmds,
				watchVoicesCmd(m.ctx, w, m.voicesChanged),
				waitForVoicesChanged(m.voicesChanged),
			)
		}
	}

	if strings.TrimSpace(m.url.Value()) != "" {
		cmds = append(cmds, func() tea.Msg { return loadMsg{} })
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.resize()

	case loadMsg:
		cmds = append(cmds, m.startLoad())

	case wordsLoadedMsg:
		if msg.gen != m.loadGen || !m.loader.Current(msg.gen) {
			log.Debug("discarding stale word list", "generation", msg.gen, "current", m.loadGen)
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			log.Error("unable to load word list", "url", msg.url, "error", msg.err)
			m.status.Set(status.FromError(msg.err))
			return m, nil
		}
		m.board.Append(msg.words, speakWordCmd)
		m.status.Set(status.NewLoaded(len(msg.words)))
		log.Info("word list loaded", "url", msg.url, "words", len(msg.words))

	case speakWordMsg:
		cmds = append(cmds, m.speak(msg.word))

	case speechDoneMsg:
		cmds = append(cmds, waitForSpeech(m.speechDone))
		if msg.Seq == m.speakingSeq {
			m.speaking = false
		}
		if msg.Err != nil && !errors.Is(msg.Err, context.Canceled) {
			cmds = append(cmds, m.setNote("Speech failed: "+firstLine(msg.Err.Error())))
		}

	case voicesRefreshedMsg:
		if msg.gen <= m.voicesGen {
			log.Debug("discarding stale voice list", "gen", msg.gen, "current", m.voicesGen)
			break
		}
		m.voicesGen = msg.gen
		m.registry.Set(msg.voices)
		m.rebuildVoices(msg.voices)

	case voicesChangedMsg:
		log.Debug("voices changed")
		cmds = append(cmds,
			m.refreshVoices(),
			waitForVoicesChanged(m.voicesChanged),
		)

	case clearNoteMsg:
		if msg.id == m.noteID {
			m.note = ""
		}

	case spinner.TickMsg:
		if m.loading || m.speaking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		cmds = append(cmds, m.updateInputs(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	// Ctrl+C always quits no matter where in the application you are.
	case "ctrl+c":
		cmd := m.quit()
		return m, cmd
	case "ctrl+z":
		return m, tea.Suspend
	}

	if m.searching {
		return m.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.cycleFocus(1)
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		m.cycleFocus(-1)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusURL:
		if msg.Type == tea.KeyEnter {
			cmd = m.startLoad()
			return m, cmd
		}
		m.url, cmd = m.url.Update(msg)
		return m, cmd

	case focusRate, focusPitch:
		switch msg.String() {
		case "up":
			m.stepFactor(m.focus, true)
		case "down":
			m.stepFactor(m.focus, false)
		case "enter":
		default:
			if m.focus == focusRate {
				m.rate, cmd = m.rate.Update(msg)
			} else {
				m.pitch, cmd = m.pitch.Update(msg)
			}
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		cmd = m.quit()
		return m, cmd
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.Stop):
		m.invoker.Cancel()
		m.speaking = false
		return m, nil
	case key.Matches(msg, m.keys.RateUp):
		m.stepFactor(focusRate, true)
		return m, nil
	case key.Matches(msg, m.keys.RateDown):
		m.stepFactor(focusRate, false)
		return m, nil
	case key.Matches(msg, m.keys.PitchUp):
		m.stepFactor(focusPitch, true)
		return m, nil
	case key.Matches(msg, m.keys.PitchDown):
		m.stepFactor(focusPitch, false)
		return m, nil
	case key.Matches(msg, m.keys.Search):
		if m.board.Len() > 0 {
			m.searching = true
			m.search.Reset()
			cmd = m.search.Focus()
			return m, cmd
		}
		return m, nil
	}

	switch m.focus {
	case focusLoad:
		if key.Matches(msg, m.keys.Activate) {
			cmd = m.startLoad()
			return m, cmd
		}

	case focusVoice:
		switch {
		case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Up):
			m.cycleVoice(-1)
		case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Down):
			m.cycleVoice(1)
		}

	case focusBoard:
		switch {
		case key.Matches(msg, m.keys.Activate):
			return m, m.board.Activate()
		case key.Matches(msg, m.keys.Left):
			m.board.Move(-1)
		case key.Matches(msg, m.keys.Right):
			m.board.Move(1)
		case key.Matches(msg, m.keys.Up):
			m.board.MoveRow(-1)
		case key.Matches(msg, m.keys.Down):
			m.board.MoveRow(1)
		case msg.String() == "pgup":
			m.board.Scroll(-m.board.height)
		case msg.String() == "pgdown":
			m.board.Scroll(m.board.height)
		case key.Matches(msg, m.keys.Copy):
			cmd = m.copyFocused()
			return m, cmd
		}
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.jumpTo(m.search.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.jumpTo(m.search.Value())
	return m, cmd
}

func (m model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button { //nolint:exhaustive
	case tea.MouseButtonWheelUp:
		m.board.Scroll(-1)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.board.Scroll(1)
		return m, nil
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	switch {
	case msg.Y == urlRow:
		if msg.X >= m.loadButtonX() {
			m.setFocus(focusLoad)
			cmd := m.startLoad()
			return m, cmd
		}
		m.setFocus(focusURL)

	case msg.Y == controlsRow:
		voiceW, rateW := m.controlWidths()
		switch {
		case msg.X < voiceW:
			if m.focus == focusVoice {
				m.cycleVoice(1)
			}
			m.setFocus(focusVoice)
		case msg.X < voiceW+rateW:
			m.setFocus(focusRate)
		default:
			m.setFocus(focusPitch)
		}

	case msg.Y >= headerHeight:
		i := m.board.ButtonAt(msg.X, msg.Y-headerHeight)
		if i < 0 {
			return m, nil
		}
		m.setFocus(focusBoard)
		m.board.SetFocus(i)
		return m, m.board.Activate()
	}
	return m, nil
}

// updateInputs forwards messages such as cursor blinks to the focused text
// input.
func (m *model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	case m.focus == focusURL:
		m.url, cmd = m.url.Update(msg)
	case m.focus == focusRate:
		m.rate, cmd = m.rate.Update(msg)
	case m.focus == focusPitch:
		m.pitch, cmd = m.pitch.Update(msg)
	}
	return cmd
}

// startLoad clears the board and fetches the URL in the URL field. A load
// already in flight is cancelled and its result ignored.
func (m *model) startLoad() tea.Cmd {
	raw := strings.TrimSpace(m.url.Value())
	if raw == "" {
		m.status.Set(status.FromError(&words.LoadError{Kind: words.InputError, Err: words.ErrEmptyURL}))
		return nil
	}

	m.board.Clear()
	if m.focus == focusBoard {
		m.setFocus(focusURL)
	}
	m.status.Set(status.NewLoading())

	ctx, gen := m.loader.Begin(m.ctx)
	m.loadGen = gen
	spinning := m.spinning()
	m.loading = true
	log.Info("loading word list", "url", raw, "generation", gen)

	cmd := loadWordsCmd(ctx, m.loader, gen, raw)
	if !spinning {
		return tea.Batch(m.spinner.Tick, cmd)
	}
	return cmd
}

func (m *model) speak(word string) tea.Cmd {
	if !m.invoker.Available() {
		log.Debug("no speech engine, ignoring", "word", word)
		return nil
	}

	m.invoker.Speak(word, m.selection())
	spinning := m.spinning()
	m.speaking = true
	m.speakingSeq = m.invoker.Seq()
	m.speakingWord = word
	if !spinning {
		return m.spinner.Tick
	}
	return nil
}

func (m model) spinning() bool {
	return m.loading || m.speaking
}

// selection returns the raw state of the voice, rate and pitch controls.
func (m model) selection() speech.Selection {
	return speech.Selection{
		Voice: m.voice,
		Rate:  m.rate.Value(),
		Pitch: m.pitch.Value(),
	}
}

// rebuildVoices replaces the selector options, keeping the selected voice
// when the new snapshot still has it.
func (m *model) rebuildVoices(voices []speech.Voice) {
	var prev string
	if idx, ok := speech.ParseIndex(m.voice); ok && idx >= 0 && idx < len(m.voices) {
		prev = m.voices[idx].ID
	}

	m.voices = voices
	switch {
	case len(voices) == 0:
		m.voice = ""
	case prev != "":
		m.voice = "0"
		for i, v := range voices {
			if v.ID == prev {
				m.voice = strconv.Itoa(i)
				break
			}
		}
	default:
		m.voice = matchVoice(voices, m.common.cfg.Voice)
	}
	log.Debug("voice selector rebuilt", "voices", len(voices), "selected", m.voice)
}

// matchVoice returns the selector value for want, which is an index, a
// voice ID or a voice name. It falls back to the first voice.
func matchVoice(voices []speech.Voice, want string) string {
	if want == "" {
		return "0"
	}
	if idx, err := strconv.Atoi(want); err == nil {
		if idx >= 0 && idx < len(voices) {
			return strconv.Itoa(idx)
		}
		log.Warn("configured voice index out of range", "voice", want, "voices", len(voices))
		return "0"
	}
	for i, v := range voices {
		if v.ID == want {
			return strconv.Itoa(i)
		}
	}
	for i, v := range voices {
		if strings.EqualFold(v.Name, want) {
			return strconv.Itoa(i)
		}
	}
	log.Warn("configured voice not found", "voice", want)
	return "0"
}

func (m *model) cycleVoice(delta int) {
	n := len(m.voices)
	if n == 0 {
		return
	}
	idx, ok := speech.ParseIndex(m.voice)
	if !ok || idx < 0 || idx >= n {
		idx = 0
	}
	m.voice = strconv.Itoa(((idx+delta)%n + n) % n)
}

func (m *model) stepFactor(area focusArea, up bool) {
	input, clamp := &m.rate, speech.ClampRate
	if area == focusPitch {
		input, clamp = &m.pitch, speech.ClampPitch
	}

	f := clamp(speech.ParseFactor(input.Value()))
	if up {
		f = speech.StepUp(f)
	} else {
		f = speech.StepDown(f)
	}
	input.SetValue(speech.FormatFactor(clamp(f)))
}

func (m *model) setFocus(f focusArea) {
	m.url.Blur()
	m.rate.Blur()
	m.pitch.Blur()
	m.board.Blur()

	m.focus = f
	switch f { //nolint:exhaustive
	case focusURL:
		m.url.Focus()
	case focusRate:
		m.rate.Focus()
	case focusPitch:
		m.pitch.Focus()
	case focusBoard:
		m.board.Focus()
	}
}

func (m *model) cycleFocus(delta int) {
	f := m.focus
	for {
		f = ((f+focusArea(delta))%numFocusAreas + numFocusAreas) % numFocusAreas
		if f != focusBoard || m.board.Len() > 0 {
			break
		}
	}
	m.setFocus(f)
}

// jumpTo moves the board focus to the word that best matches query.
func (m *model) jumpTo(query string) {
	if query == "" {
		return
	}
	matches := fuzzy.Find(query, m.board.Words())
	if len(matches) == 0 {
		return
	}
	m.setFocus(focusBoard)
	m.board.SetFocus(matches[0].Index)
}

func (m *model) copyFocused() tea.Cmd {
	w, ok := m.board.Focused()
	if !ok {
		return nil
	}
	// Copy via OSC 52 for remote terminals and via the system clipboard
	// for local ones.
	te.Copy(w)
	if err := clipboard.WriteAll(w); err != nil {
		log.Debug("system clipboard unavailable", "error", err)
	}
	return m.setNote("Copied " + strconv.Quote(w))
}

// setNote shows a transient note in the footer.
func (m *model) setNote(note string) tea.Cmd {
	m.noteID++
	m.note = note
	id := m.noteID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return clearNoteMsg{id: id}
	})
}

func (m *model) quit() tea.Cmd {
	log.Debug("quitting")
	m.loader.Cancel()
	m.invoker.Close()
	m.cancel()
	return tea.Quit
}

func (m *model) resize() {
	w := m.width()
	m.url.Width = max(w-lipgloss.Width(m.loadButtonView())-len("URL ")-2, 10)
	m.help.Width = w
	footer := 1 + lipgloss.Height(m.help.View(m.keys))
	m.board.SetSize(w, m.common.height-headerHeight-footer)
}

func (m model) width() int {
	if m.common.width <= 0 {
		return defaultWidth
	}
	return m.common.width
}

// COMMANDS

func loadWordsCmd(ctx context.Context, l *words.Loader, gen uint64, url string) tea.Cmd {
	return func() tea.Msg {
		ws, err := l.Load(ctx, url)
		return wordsLoadedMsg{gen: gen, url: url, words: ws, err: err}
	}
}

func speakWordCmd(word string) tea.Cmd {
	return func() tea.Msg {
		return speakWordMsg{word: word}
	}
}

func waitForSpeech(ch <-chan speech.Done) tea.Cmd {
	return func() tea.Msg {
		return speechDoneMsg(<-ch)
	}
}

// refreshVoices asks the engine for its voices. The snapshot itself is
// replaced in Update, together with the selector.
func (m model) refreshVoices() tea.Cmd {
	m.common.voiceRequests++
	return refreshVoicesCmd(m.ctx, m.registry, m.common.voiceRequests)
}

func refreshVoicesCmd(ctx context.Context, r *speech.Registry, gen uint64) tea.Cmd {
	return func() tea.Msg {
		return voicesRefreshedMsg{gen: gen, voices: r.Fetch(ctx)}
	}
}

func watchVoicesCmd(ctx context.Context, w speech.VoiceWatcher, ch chan<- struct{}) tea.Cmd {
	return func() tea.Msg {
		err := w.WatchVoices(ctx, func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errors.ErrUnsupported) {
			log.Warn("voice watcher stopped", "error", err)
		}
		return nil
	}
}

func waitForVoicesChanged(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return voicesChangedMsg{}
	}
}

// VIEW

func (m model) View() string {
	return strings.Join([]string{
		m.headerView(),
		m.board.View(),
		m.statusView(),
		m.help.View(m.keys),
	}, "\n")
}

func (m model) headerView() string {
	engine := "no speech"
	if m.engine != nil {
		engine = m.engine.Name()
	}
	title := titleStyle.Render("wordboard") + " " + subtleStyle.Render(engine)

	return strings.Join([]string{
		title,
		m.urlLineView(),
		m.controlsView(),
		"",
	}, "\n")
}

func (m model) label(s string, area focusArea) string {
	if m.focus == area {
		return focusedLabelStyle.Render(s)
	}
	return labelStyle.Render(s)
}

func (m model) urlLineView() string {
	return m.urlPrefixView() + m.loadButtonView()
}

func (m model) urlPrefixView() string {
	return m.label("URL", focusURL) + " " + m.url.View() + " "
}

func (m model) loadButtonView() string {
	if m.focus == focusLoad {
		return focusedButtonStyle.Render("Load")
	}
	return buttonStyle.Render("Load")
}

func (m model) loadButtonX() int {
	return lipgloss.Width(m.urlPrefixView())
}

func (m model) voiceView() string {
	name := "(engine default)"
	if m.engine == nil {
		name = "(unavailable)"
	}
	if idx, ok := speech.ParseIndex(m.voice); ok && idx >= 0 && idx < len(m.voices) {
		name = m.voices[idx].Label()
	}
	name = runewidth.Truncate(name, maxVoiceWidth, ellipsis)
	return m.label("Voice", focusVoice) + " ‹ " + name + " ›  "
}

func (m model) rateView() string {
	return m.label("Rate", focusRate) + " " + m.rate.View() + "  "
}

func (m model) pitchView() string {
	return m.label("Pitch", focusPitch) + " " + m.pitch.View()
}

func (m model) controlsView() string {
	return m.voiceView() + m.rateView() + m.pitchView()
}

// controlWidths returns the widths of the voice and rate segments of the
// controls row.
func (m model) controlWidths() (voice, rate int) {
	return lipgloss.Width(m.voiceView()), lipgloss.Width(m.rateView())
}

func (m model) statusView() string {
	w := m.width()

	if m.searching {
		return truncate.StringWithTail(m.search.View(), uint(w), ellipsis) //nolint:gosec
	}

	var right string
	switch {
	case m.note != "":
		right = noteStyle.Render(truncate.StringWithTail(m.note, uint(w/2), ellipsis)) //nolint:gosec
	case m.speaking:
		right = speakingStyle.Render(truncate.StringWithTail("♪ "+m.speakingWord, uint(w/3), ellipsis)) //nolint:gosec
	}

	var left string
	if m.loading {
		left = m.spinner.View() + " "
	}

	st := m.status.Current()
	style := statusStyle
	switch {
	case st.IsError():
		style = statusErrorStyle
	case st.Kind == status.Loaded:
		style = statusOKStyle
	}

	avail := max(w-lipgloss.Width(left)-lipgloss.Width(right)-1, 0)
	text := style.Render(truncate.StringWithTail(st.String(), uint(avail), ellipsis)) //nolint:gosec

	gap := max(w-lipgloss.Width(left)-lipgloss.Width(text)-lipgloss.Width(right), 1)
	return left + text + strings.Repeat(" ", gap) + right
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
