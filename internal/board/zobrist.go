package board

// Zobrist hash keys for position hashing.
// Two independent key sets are drawn: one for Hash, one for Lock.
// Uses PRNG with fixed seed for reproducibility.
type zobristKeys struct {
	piece      [12][64]uint64
	enPassant  [8]uint64 // one per file
	castling   [16]uint64
	sideToMove uint64 // XOR when black to move
}

var (
	hashKeys zobristKeys
	lockKeys zobristKeys
)

func init() {
	initZobrist(&hashKeys, 0x98F107A2BEEF1234)
	initZobrist(&lockKeys, 0x2D358DCCAA6C78A5)
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist(keys *zobristKeys, seed uint64) {
	rng := &prng{state: seed}

	for piece := range keys.piece {
		for sq := range keys.piece[piece] {
			keys.piece[piece][sq] = rng.next()
		}
	}
	for file := range keys.enPassant {
		keys.enPassant[file] = rng.next()
	}
	for i := range keys.castling {
		keys.castling[i] = rng.next()
	}
	keys.sideToMove = rng.next()
}

// toggleKeys XORs a piece on a square into both keys.
func (p *Position) toggleKeys(piece Piece, sq Square) {
	i := sq.index()
	p.Hash ^= hashKeys.piece[piece][i]
	p.Lock ^= lockKeys.piece[piece][i]
}

func (p *Position) toggleCastling(cr CastlingRights) {
	p.Hash ^= hashKeys.castling[cr]
	p.Lock ^= lockKeys.castling[cr]
}

func (p *Position) toggleEnPassant(sq Square) {
	if !sq.IsValid() {
		return
	}
	p.Hash ^= hashKeys.enPassant[sq.File()]
	p.Lock ^= lockKeys.enPassant[sq.File()]
}

func (p *Position) toggleSide() {
	p.Hash ^= hashKeys.sideToMove
	p.Lock ^= lockKeys.sideToMove
}

// computeKeys recomputes Hash and Lock from scratch.
func (p *Position) computeKeys() {
	p.Hash, p.Lock = 0, 0
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if piece := p.Board[r][c]; piece != NoPiece {
				p.toggleKeys(piece, NewSquare(r, c))
			}
		}
	}
	p.toggleCastling(p.CastlingRights)
	p.toggleEnPassant(p.EnPassant)
	if p.SideToMove == Black {
		p.toggleSide()
	}
}

// ComputeHash returns the canonical hash computed from scratch.
// It always equals p.Hash; exposed for consistency checks.
func (p *Position) ComputeHash() uint64 {
	c := *p
	c.computeKeys()
	return c.Hash
}
