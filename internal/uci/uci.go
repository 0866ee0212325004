// Package uci drives the engine over the Universal Chess Interface text protocol.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/rayfish/internal/board"
	"github.com/hailam/rayfish/internal/engine"
)

// Default option values
const (
	DefaultHash  = 64
	DefaultDepth = 4
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Position
	hashMB   int
	depth    int // used when "go" names no depth or clock

	out    io.Writer
	errOut io.Writer
	outMu  sync.Mutex

	// Search state
	job        *engine.Job   // nil when no search is running
	searchDone chan struct{} // closed once bestmove has been sent
	release    chan struct{} // holds the bestmove of "go infinite" until stop

	// CPU profiling
	profileFile *os.File
}

// New creates a new UCI protocol handler writing responses to out and
// diagnostics to errOut.
func New(hashMB, depth int, out, errOut io.Writer) *UCI {
	if hashMB < 1 {
		hashMB = DefaultHash
	}
	if depth < 1 {
		depth = DefaultDepth
	}
	u := &UCI{
		position: board.NewPosition(),
		hashMB:   hashMB,
		depth:    depth,
		out:      out,
		errOut:   errOut,
	}
	u.setEngine(engine.NewEngine(hashMB))
	return u
}

func (u *UCI) setEngine(eng *engine.Engine) {
	eng.OnInfo = u.sendInfo
	u.engine = eng
}

// send writes one protocol line. It is safe to call from the search goroutine.
func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// infoString reports a diagnostic the way GUIs expect them.
func (u *UCI) infoString(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.errOut, "info string "+format+"\n", args...)
}

// Run reads commands from in until "quit" or end of input. A search still
// running at end of input is allowed to finish unless it is infinite;
// "quit" stops it.
func (u *UCI) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			u.stopProfile()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.handleDisplay()
		case "perft":
			u.handlePerft(args)
		default:
			u.infoString("Unknown command: %s", cmd)
		}
	}

	u.waitSearch()
	u.stopProfile()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name Rayfish")
	u.send("id author the Rayfish authors")
	u.send("")
	u.send("option name Hash type spin default %d min 1 max 4096", DefaultHash)
	u.send("option name Depth type spin default %d min 1 max %d", DefaultDepth, engine.MaxPly-1)
	u.send("option name CPUProfile type string default <empty>")
	u.send("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.waitSearch()

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			u.infoString("Invalid FEN: %v", err)
			return
		}
	default:
		u.infoString("Invalid position command: %s", args[0])
		return
	}

	// Apply moves
	if movesAt < len(args) {
		for _, moveStr := range args[movesAt+1:] {
			move, err := pos.ParseMove(moveStr)
			if err == nil {
				err = pos.MakeMove(move, nil)
			}
			if err != nil {
				u.infoString("Invalid move %s: %v", moveStr, err)
				return
			}
		}
	}
	u.position = pos
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) engine.UCILimits {
	var opts engine.UCILimits

	millis := func(s string) time.Duration {
		ms, _ := strconv.Atoi(s)
		return time.Duration(ms) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		var next string
		if i+1 < len(args) {
			next = args[i+1]
		}
		switch args[i] {
		case "depth":
			opts.Depth, _ = strconv.Atoi(next)
			i++
		case "movetime":
			opts.MoveTime = millis(next)
			i++
		case "infinite":
			opts.Infinite = true
		case "wtime":
			opts.Time[board.White] = millis(next)
			i++
		case "btime":
			opts.Time[board.Black] = millis(next)
			i++
		case "winc":
			opts.Inc[board.White] = millis(next)
			i++
		case "binc":
			opts.Inc[board.Black] = millis(next)
			i++
		case "movestogo":
			opts.MovesToGo, _ = strconv.Atoi(next)
			i++
		}
	}
	return opts
}

// searchLimits converts "go" options into engine limits for the current position.
func (u *UCI) searchLimits(opts engine.UCILimits) engine.SearchLimits {
	us := u.position.SideToMove
	if opts.Depth == 0 && opts.MoveTime == 0 && opts.Time[us] == 0 && !opts.Infinite {
		opts.Depth = u.depth
	}
	ply := (u.position.FullMoveNumber-1)*2 + int(us)
	return opts.SearchLimits(us, ply)
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(args []string) {
	u.waitSearch()

	opts := parseGoOptions(args)
	limits := u.searchLimits(opts)
	pos := u.position.Copy()
	job := u.engine.Go(pos, limits)
	done := make(chan struct{})
	var release chan struct{}
	if opts.Infinite {
		release = make(chan struct{})
	}
	u.job, u.searchDone, u.release = job, done, release

	go func() {
		defer close(done)
		result, err := job.Wait(context.Background())
		if err != nil {
			return
		}
		// An infinite search may end early (mate found) but must not
		// report before the GUI says stop.
		if release != nil {
			<-release
		}

		// Stopped before the first iteration completed
		if result.Move.IsNull() {
			if legal := pos.LegalMoves(); len(legal) > 0 {
				u.infoString("Search returned NoMove, using fallback")
				result.Move = legal[0]
			}
		}
		u.send("bestmove %s", result.Move)
	}()
}

// waitSearch blocks until the running search, if any, has reported. An
// infinite search only ends on stop, so it is stopped here.
func (u *UCI) waitSearch() {
	if u.job == nil {
		return
	}
	if u.release != nil {
		u.job.Stop()
		close(u.release)
		u.release = nil
	}
	<-u.searchDone
	u.job, u.searchDone = nil, nil
}

// handleStop stops the current search. The search reports the move of its
// deepest completed iteration.
func (u *UCI) handleStop() {
	if u.job != nil {
		u.job.Stop()
		u.waitSearch()
	}
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	// Score
	if info.Score > engine.MateScore-engine.MaxPly {
		mateIn := (engine.MateScore - info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else if info.Score < -engine.MateScore+engine.MaxPly {
		mateIn := -(engine.MateScore + info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	// NPS
	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}

	// Hash fullness
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	u.send("info %s", strings.Join(parts, " "))
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value string
	readingName := false
	readingValue := false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName = true
			readingValue = false
		case "value":
			readingName = false
			readingValue = true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			u.infoString("Invalid Hash value: %s", value)
			return
		}
		u.handleStop()
		u.hashMB = mb
		u.setEngine(engine.NewEngine(mb))
	case "depth":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 1 || depth >= engine.MaxPly {
			u.infoString("Invalid Depth value: %s", value)
			return
		}
		u.depth = depth
	case "cpuprofile":
		u.stopProfile()
		if value != "" && value != "stop" {
			if err := u.StartProfile(value); err != nil {
				u.infoString("%v", err)
			}
		}
	default:
		u.infoString("Unknown option: %s", name)
	}
}

// StartProfile writes a CPU profile to path until the session ends.
func (u *UCI) StartProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("start profile: %w", err)
	}
	u.profileFile = f
	u.infoString("CPU profiling to %s", path)
	return nil
}

// stopProfile stops CPU profiling if active.
func (u *UCI) stopProfile() {
	if u.profileFile != nil {
		pprof.StopCPUProfile()
		u.profileFile.Close()
		u.profileFile = nil
		u.infoString("CPU profile saved")
	}
}

// handleDisplay prints the board and its state.
func (u *UCI) handleDisplay() {
	pos := u.position
	u.send("%s", pos.String())
	u.send("Fen: %s", pos.ToFEN())
	u.send("Key: %016x", pos.Hash)
	u.send("Status: %s", pos.Status())
	if pos.IsInCheck() {
		u.send("Checkers: in check")
	}
	u.send("Eval: %s", engine.ScoreToString(u.engine.Evaluate(pos)))
}

// handlePerft runs a perft test, listing the count below each root move.
func (u *UCI) handlePerft(args []string) {
	depth := 3
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 1 {
			u.infoString("Invalid perft depth: %s", args[0])
			return
		}
		depth = d
	}
	u.waitSearch()

	start := time.Now()
	counts := engine.Divide(u.position.Copy(), depth)
	elapsed := time.Since(start)

	lines := make([]string, 0, len(counts))
	var nodes uint64
	for m, n := range counts {
		lines = append(lines, fmt.Sprintf("%s: %d", m, n))
		nodes += n
	}
	sort.Strings(lines)
	for _, line := range lines {
		u.send("%s", line)
	}

	u.send("")
	u.send("Nodes: %d", nodes)
	u.send("Time: %v", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		u.send("NPS: %.0f", nps)
	}
}
