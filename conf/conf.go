package conf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/squareup/tilestore/errors"
)

const (
	DefaultTableName         = "scan_table"
	DefaultTileGroupCapacity = 50
	DefaultTileGroupCount    = 2
	DefaultPartitions        = "2,2;1,3"
	DefaultMetricsAddr       = "localhost:2112"
	DefaultPrintLimit        = 20
)

// Config drives the tilescan tool. Every tile group of the generated table is split into column groups, tile
// group i using layout i modulo the number of layouts in Partitions.
type Config struct {
	TableName         string `help:"Name of the generated table" default:"scan_table"`
	TileGroupCapacity int    `help:"Number of tuple slots in each tile group" default:"50"`
	TileGroupCount    int    `help:"Number of tile groups to generate" default:"2"`
	Partitions        string `help:"Column group widths per tile group, layouts separated by ';' and widths by ','" default:"2,2;1,3"`
	Predicate         string `help:"Predicate tuples must satisfy, for example a = 30 OR d = '53'. Empty keeps every tuple"`
	Columns           []int  `help:"Ids of the columns to output, all columns if empty"`
	Materialize       bool   `help:"Copy the scan output into new tile groups before printing"`
	MetricsEnabled    bool   `help:"Expose prometheus metrics while the scan runs"`
	MetricsAddr       string `help:"Listen address of the metrics endpoint" default:"localhost:2112"`
	PrintLimit        int    `help:"Maximum number of tuples printed per tile" default:"20"`
}

func NewDefaultConfig() *Config {
	return &Config{
		TableName:         DefaultTableName,
		TileGroupCapacity: DefaultTileGroupCapacity,
		TileGroupCount:    DefaultTileGroupCount,
		Partitions:        DefaultPartitions,
		MetricsAddr:       DefaultMetricsAddr,
		PrintLimit:        DefaultPrintLimit,
	}
}

func (c *Config) Validate() error {
	if c.TableName == "" {
		return errors.NewInvalidConfigurationError("TableName must be specified")
	}
	if c.TileGroupCapacity < 1 {
		return errors.NewInvalidConfigurationError("TileGroupCapacity must be >= 1")
	}
	if c.TileGroupCount < 0 {
		return errors.NewInvalidConfigurationError("TileGroupCount must be >= 0")
	}
	if _, err := c.ParsePartitions(); err != nil {
		return err
	}
	for _, colID := range c.Columns {
		if colID < 0 {
			return errors.NewInvalidConfigurationError(fmt.Sprintf("Columns must be >= 0, got %d", colID))
		}
	}
	if c.MetricsEnabled && c.MetricsAddr == "" {
		return errors.NewInvalidConfigurationError("MetricsAddr must be specified when MetricsEnabled is set")
	}
	if c.PrintLimit < 0 {
		return errors.NewInvalidConfigurationError("PrintLimit must be >= 0")
	}
	return nil
}

// ParsePartitions returns one list of column group widths per layout in Partitions.
func (c *Config) ParsePartitions() ([][]int, error) {
	if strings.TrimSpace(c.Partitions) == "" {
		return nil, errors.NewInvalidConfigurationError("Partitions must be specified")
	}
	var layouts [][]int
	for _, layout := range strings.Split(c.Partitions, ";") {
		var widths []int
		for _, w := range strings.Split(layout, ",") {
			width, err := strconv.Atoi(strings.TrimSpace(w))
			if err != nil || width < 1 {
				return nil, errors.NewInvalidConfigurationError(
					fmt.Sprintf("Partitions has invalid column group width %q", strings.TrimSpace(w)))
			}
			widths = append(widths, width)
		}
		layouts = append(layouts, widths)
	}
	return layouts, nil
}
