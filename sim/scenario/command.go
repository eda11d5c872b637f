package scenario

import (
	"errors"
	"fmt"

	"github.com/stacksim/stacksim/sim"
)

// Op names a scenario command.
type Op string

const (
	OpPlace     Op = "place"
	OpConnect   Op = "connect"
	OpDelete    Op = "delete"
	OpUpgrade   Op = "upgrade"
	OpTimeScale Op = "time-scale"
	OpInject    Op = "inject"
)

// ErrInvalidCommand is returned for commands missing required fields.
var ErrInvalidCommand = errors.New("invalid command")

// Command is one player action. It is the unit of both scenario files and the
// HTTP command endpoint. Node references (From, To, Node) are labels assigned
// by earlier place commands, the literal "internet", or raw node IDs.
type Command struct {
	At          float64         `yaml:"at,omitempty" json:"at,omitempty"` // simulated seconds
	Op          Op              `yaml:"op" json:"op"`
	Label       string          `yaml:"label,omitempty" json:"label,omitempty"`
	NodeType    sim.NodeType    `yaml:"type,omitempty" json:"type,omitempty"`
	Position    sim.Position    `yaml:"position,omitempty" json:"position,omitempty"`
	From        string          `yaml:"from,omitempty" json:"from,omitempty"`
	To          string          `yaml:"to,omitempty" json:"to,omitempty"`
	Node        string          `yaml:"node,omitempty" json:"node,omitempty"`
	Scale       int             `yaml:"scale" json:"scale"`
	RequestType sim.RequestType `yaml:"request,omitempty" json:"request,omitempty"`
	Count       int             `yaml:"count,omitempty" json:"count,omitempty"` // inject only, default 1
}

func (c Command) String() string {
	switch c.Op {
	case OpPlace:
		return fmt.Sprintf("place %s at (%g,%g,%g)", c.NodeType, c.Position.X, c.Position.Y, c.Position.Z)
	case OpConnect:
		return fmt.Sprintf("connect %s -> %s", c.From, c.To)
	case OpDelete, OpUpgrade:
		return fmt.Sprintf("%s %s", c.Op, c.Node)
	case OpTimeScale:
		return fmt.Sprintf("time-scale %d", c.Scale)
	case OpInject:
		return fmt.Sprintf("inject %d x %s", c.injectCount(), c.RequestType)
	}
	return string(c.Op)
}

func (c Command) injectCount() int {
	if c.Count <= 0 {
		return 1
	}
	return c.Count
}

// Validate checks that the fields required by Op are present and well-formed.
// It does not consult simulator state.
func (c Command) Validate() error {
	if c.At < 0 {
		return fmt.Errorf("%w: negative time %g", ErrInvalidCommand, c.At)
	}
	switch c.Op {
	case OpPlace:
		if _, err := sim.ParseNodeType(string(c.NodeType)); err != nil {
			return fmt.Errorf("%w: place: %v", ErrInvalidCommand, err)
		}
	case OpConnect:
		if c.From == "" || c.To == "" {
			return fmt.Errorf("%w: connect needs from and to", ErrInvalidCommand)
		}
	case OpDelete, OpUpgrade:
		if c.Node == "" {
			return fmt.Errorf("%w: %s needs node", ErrInvalidCommand, c.Op)
		}
	case OpTimeScale:
		if _, err := sim.ParseTimeScale(c.Scale); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
	case OpInject:
		if _, err := sim.ParseRequestType(string(c.RequestType)); err != nil {
			return fmt.Errorf("%w: inject: %v", ErrInvalidCommand, err)
		}
		if c.Count < 0 {
			return fmt.Errorf("%w: inject count must be non-negative", ErrInvalidCommand)
		}
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, c.Op)
	}
	return nil
}

// Labels maps scenario labels to placed node IDs.
type Labels map[string]sim.NodeID

// NewLabels returns a label table with "internet" preset.
func NewLabels() Labels {
	return Labels{string(sim.InternetID): sim.InternetID}
}

// Resolve maps a node reference to a NodeID. Unknown references are taken to
// be raw node IDs; the simulator rejects them if they do not exist.
func (l Labels) Resolve(ref string) sim.NodeID {
	if id, ok := l[ref]; ok {
		return id
	}
	return sim.NodeID(ref)
}

// Result reports what an applied command did.
type Result struct {
	Op         Op              `json:"op"`
	NodeID     sim.NodeID      `json:"node_id,omitempty"`
	Tier       int             `json:"tier,omitempty"`
	Cost       int             `json:"cost,omitempty"`
	Refund     int             `json:"refund,omitempty"`
	RequestIDs []sim.RequestID `json:"request_ids,omitempty"`
}

// Apply validates cmd and executes it against s. Simulator rejections are
// returned wrapped, so errors.Is matches the sim sentinel errors.
func Apply(s *sim.Simulator, labels Labels, cmd Command) (Result, error) {
	res := Result{Op: cmd.Op}
	if err := cmd.Validate(); err != nil {
		return res, err
	}

	switch cmd.Op {
	case OpPlace:
		id, err := s.PlaceNode(cmd.NodeType, cmd.Position)
		if err != nil {
			return res, fmt.Errorf("%s: %w", cmd, err)
		}
		res.NodeID = id
		if cmd.Label != "" && labels != nil {
			labels[cmd.Label] = id
		}
	case OpConnect:
		if err := s.Connect(labels.Resolve(cmd.From), labels.Resolve(cmd.To)); err != nil {
			return res, fmt.Errorf("%s: %w", cmd, err)
		}
	case OpDelete:
		id := labels.Resolve(cmd.Node)
		refund, err := s.DeleteNode(id)
		if err != nil {
			return res, fmt.Errorf("%s: %w", cmd, err)
		}
		res.NodeID, res.Refund = id, refund
	case OpUpgrade:
		id := labels.Resolve(cmd.Node)
		tier, cost, err := s.UpgradeNode(id)
		if err != nil {
			return res, fmt.Errorf("%s: %w", cmd, err)
		}
		res.NodeID, res.Tier, res.Cost = id, tier, cost
	case OpTimeScale:
		if err := s.SetTimeScale(sim.TimeScale(cmd.Scale)); err != nil {
			return res, fmt.Errorf("%s: %w", cmd, err)
		}
	case OpInject:
		for i := 0; i < cmd.injectCount(); i++ {
			id := s.InjectRequest(cmd.RequestType)
			if id == "" {
				return res, fmt.Errorf("%s: %w", cmd, sim.ErrGameOver)
			}
			res.RequestIDs = append(res.RequestIDs, id)
		}
	}
	return res, nil
}
