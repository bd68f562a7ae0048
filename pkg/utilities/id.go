package utilities

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeMu sync.Mutex
	nodes  = map[int64]*snowflake.Node{}
)

// NewSnowflakeIDWithNode generates a snowflake ID string using the provided node ID.
// If the node cannot be initialized, it falls back to a KSUID string.
func NewSnowflakeIDWithNode(nodeID int64) string {
	nodeMu.Lock()
	node, ok := nodes[nodeID]
	if !ok {
		var err error
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			nodeMu.Unlock()
			return NewKSUID()
		}
		nodes[nodeID] = node
	}
	nodeMu.Unlock()
	return node.Generate().String()
}

// IDGenerator hands out detection job ids from a fixed snowflake node.
type IDGenerator struct {
	Node int64
}

func (g IDGenerator) Next() string { return NewSnowflakeIDWithNode(g.Node) }
