package exec

// StaticTiles is a leaf executor that hands out a fixed list of tiles, one per Execute.
type StaticTiles struct {
	executorBase
	tiles   []*LogicalTile
	index   int
	initErr error
}

var _ Executor = &StaticTiles{}

func NewStaticTiles(tiles ...*LogicalTile) *StaticTiles {
	return &StaticTiles{
		executorBase: executorBase{name: "StaticTiles"},
		tiles:        tiles,
	}
}

// NewFailingStaticTiles returns an executor whose Init fails with err.
func NewFailingStaticTiles(err error) *StaticTiles {
	s := NewStaticTiles()
	s.initErr = err
	return s
}

func (s *StaticTiles) Init() error {
	if s.initErr != nil {
		return s.initErr
	}
	if err := s.initChildren(); err != nil {
		return err
	}
	s.index = 0
	s.initialized()
	return nil
}

func (s *StaticTiles) Execute() (bool, error) {
	exhausted, err := s.checkExecutable()
	if err != nil || exhausted {
		return false, err
	}
	if s.index >= len(s.tiles) {
		s.exhaust()
		return false, nil
	}
	tile := s.tiles[s.index]
	s.tiles[s.index] = nil
	s.index++
	s.produced(tile)
	return true, nil
}
