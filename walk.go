package ncdiff

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
)

type side uint8

const (
	leftSide side = iota
	rightSide
)

func (s side) String() string {
	if s == leftSide {
		return "left"
	}
	return "right"
}

// groupPair is a pending unit of work for the walker. one of the two sides
// may be missing, in which case the present side's subtree is reported as
// added or removed
type groupPair struct {
	left, right           GroupPath
	hasLeft, hasRight     bool
	renamed               bool
	leftScope, rightScope *dimScope
}

// path is the path records for this pair are filed under
func (p groupPair) path() GroupPath {
	if p.hasLeft {
		return p.left
	}
	return p.right
}

// rightPath is set only when both sides are present & paths differ
func (p groupPair) rightPath() GroupPath {
	if p.hasLeft && p.hasRight && p.left != p.right {
		return p.right
	}
	return ""
}

// groupMeta is a snapshot of everything the walker needs from one group,
// read before any records are emitted for it
type groupMeta struct {
	subgroups []string
	dims      map[string]DimensionInfo
	vars      map[string]VariableInfo
	attrs     Attributes
	varAttrs  map[string]Attributes
}

// walker is a state machine over pairs of group paths. pairs start pending
// in a FIFO queue, each pair is compared & its child pairs enqueued, and the
// walk terminates when no pairs remain
type walker struct {
	cfg         *Config
	left, right Accessor
	score       Scorer
	ignore      []glob.Glob
	log         logrus.FieldLogger
	b           *Builder

	queue   []groupPair
	visited map[string]bool
}

func newWalker(cfg *Config, left, right Accessor, ignore []glob.Glob) *walker {
	return &walker{
		cfg:     cfg,
		left:    left,
		right:   right,
		score:   cfg.scorer(),
		ignore:  ignore,
		log:     cfg.logger(),
		b:       NewBuilder(),
		visited: map[string]bool{},
	}
}

// run walks both hierarchies from their roots. cancellation is checked
// between group pairs, so every pair is either fully reported or not at all
func (w *walker) run(ctx context.Context) error {
	w.queue = []groupPair{{left: RootPath, right: RootPath, hasLeft: true, hasRight: true}}

	for len(w.queue) > 0 {
		if err := ctx.Err(); err != nil {
			w.log.WithField("pending", len(w.queue)).Warn("comparison aborted")
			w.b.Abort()
			return err
		}

		p := w.queue[0]
		w.queue = w.queue[1:]
		if !w.visit(p) {
			w.log.WithField("path", p.path()).Warn("skipping revisited group")
			continue
		}

		switch {
		case p.hasLeft && p.hasRight:
			w.comparePair(ctx, p)
		case p.hasLeft:
			w.reportOneSided(ctx, p, leftSide)
		default:
			w.reportOneSided(ctx, p, rightSide)
		}
	}
	return nil
}

// visit marks both sides of a pair as visited, returning false if either side
// has been seen. hierarchies are trees, this only guards against malformed
// accessors
func (w *walker) visit(p groupPair) bool {
	lk, rk := "L"+string(p.left), "R"+string(p.right)
	if (p.hasLeft && w.visited[lk]) || (p.hasRight && w.visited[rk]) {
		return false
	}
	if p.hasLeft {
		w.visited[lk] = true
	}
	if p.hasRight {
		w.visited[rk] = true
	}
	return true
}

func (w *walker) load(ctx context.Context, a Accessor, path GroupPath) (*groupMeta, error) {
	var (
		m   = &groupMeta{varAttrs: map[string]Attributes{}}
		err error
	)
	if m.subgroups, err = a.Subgroups(ctx, path); err != nil {
		return nil, asAccessError("subgroups", path, "", err)
	}
	if m.dims, err = a.Dimensions(ctx, path); err != nil {
		return nil, asAccessError("dimensions", path, "", err)
	}
	if m.vars, err = a.Variables(ctx, path); err != nil {
		return nil, asAccessError("variables", path, "", err)
	}
	if m.attrs, err = a.Attributes(ctx, path, ""); err != nil {
		return nil, asAccessError("attributes", path, "", err)
	}
	m.attrs = normalizeAttributes(m.attrs)
	for name := range m.vars {
		attrs, err := a.Attributes(ctx, path, name)
		if err != nil {
			return nil, asAccessError("attributes", path, name, err)
		}
		m.varAttrs[name] = normalizeAttributes(attrs)
	}
	return m, nil
}

// unreadable degrades a pair whose metadata couldn't be read to a single
// changed record, skipping the subtree
func (w *walker) unreadable(p groupPair, s side, err error) {
	w.log.WithFields(logrus.Fields{"path": p.path(), "side": s}).Warnf("unreadable group: %s", err)
	rec := DiffRecord{
		Path:      p.path(),
		RightPath: p.rightPath(),
		Kind:      KindGroup,
		Status:    StatusChanged,
		Detail:    fmt.Sprintf("unreadable: %s: %s", s, err),
	}
	if p.hasLeft {
		rec.Left = p.left.Base()
	}
	if p.hasRight {
		rec.Right = p.right.Base()
	}
	w.b.AddUnreadable(rec)
}

func (w *walker) comparePair(ctx context.Context, p groupPair) {
	w.log.WithFields(logrus.Fields{"left": p.left, "right": p.right}).Debug("comparing groups")

	lm, err := w.load(ctx, w.left, p.left)
	if err != nil {
		w.unreadable(p, leftSide, err)
		return
	}
	rm, err := w.load(ctx, w.right, p.right)
	if err != nil {
		w.unreadable(p, rightSide, err)
		return
	}

	leftScope := &dimScope{dims: lm.dims, parent: p.leftScope}
	rightScope := &dimScope{dims: rm.dims, parent: p.rightScope}
	path, rightPath := p.path(), p.rightPath()

	group := DiffRecord{
		Path:      path,
		RightPath: rightPath,
		Kind:      KindGroup,
		Left:      p.left.Base(),
		Right:     p.right.Base(),
		Status:    StatusSame,
	}
	if p.renamed {
		group.Status = StatusRenamed
		group.Detail = fmt.Sprintf("renamed %s -> %s", p.left.Base(), p.right.Base())
	}
	recs := []DiffRecord{group}

	// dimensions
	dm := w.match(w.names(p.left, lm.dims), w.names(p.right, rm.dims))
	for _, name := range dm.Matched {
		recs = append(recs, compareDimensions(path, rightPath, lm.dims[name], rm.dims[name], false))
	}
	for _, pair := range dm.Renamed {
		recs = append(recs, compareDimensions(path, rightPath, lm.dims[pair.Left], rm.dims[pair.Right], true))
	}
	for _, name := range dm.LeftOnly {
		recs = append(recs, oneSidedDimension(path, rightPath, lm.dims[name], leftSide))
	}
	for _, name := range dm.RightOnly {
		recs = append(recs, oneSidedDimension(path, rightPath, rm.dims[name], rightSide))
	}

	// variables
	vm := w.match(w.names(p.left, lm.vars), w.names(p.right, rm.vars))
	pairs := make([]VariablePair, 0, len(vm.Matched)+len(vm.Renamed))
	for _, name := range vm.Matched {
		pairs = append(pairs, VariablePair{Left: lm.vars[name], Right: rm.vars[name]})
	}
	for _, rp := range vm.Renamed {
		pairs = append(pairs, VariablePair{Left: lm.vars[rp.Left], Right: rm.vars[rp.Right], Renamed: true})
	}
	for _, vp := range pairs {
		vp.Path, vp.RightPath = path, rightPath
		vp.Left = resolveShape(vp.Left, leftScope)
		vp.Right = resolveShape(vp.Right, rightScope)
		recs = append(recs, CompareVariables(vp, w.cfg.CompareChunks))

		owner := AttributeOwner{Path: path, RightPath: rightPath, Left: vp.Left.Name, Right: vp.Right.Name}
		recs = append(recs, DiffAttributes(owner,
			w.attrs(p.left, vp.Left.Name, lm.varAttrs[vp.Left.Name]),
			w.attrs(p.right, vp.Right.Name, rm.varAttrs[vp.Right.Name]))...)
	}
	for _, name := range vm.LeftOnly {
		v := resolveShape(lm.vars[name], leftScope)
		recs = append(recs, w.oneSidedVariable(path, rightPath, v, w.attrs(p.left, name, lm.varAttrs[name]), leftSide)...)
	}
	for _, name := range vm.RightOnly {
		v := resolveShape(rm.vars[name], rightScope)
		recs = append(recs, w.oneSidedVariable(path, rightPath, v, w.attrs(p.right, name, rm.varAttrs[name]), rightSide)...)
	}

	// group attributes
	recs = append(recs, DiffAttributes(AttributeOwner{Path: path, RightPath: rightPath},
		w.attrs(p.left, "", lm.attrs),
		w.attrs(p.right, "", rm.attrs))...)

	// subgroups
	var gm MatchResult
	if !w.cfg.MatchGroups {
		gm = MatchNames(w.groupNames(p.left, lm.subgroups), w.groupNames(p.right, rm.subgroups), nil, 1)
	} else {
		gm = w.match(w.groupNames(p.left, lm.subgroups), w.groupNames(p.right, rm.subgroups))
	}
	for _, name := range gm.Matched {
		w.enqueue(groupPair{
			left: p.left.Child(name), right: p.right.Child(name),
			hasLeft: true, hasRight: true,
			leftScope: leftScope, rightScope: rightScope,
		})
	}
	for _, rp := range gm.Renamed {
		w.enqueue(groupPair{
			left: p.left.Child(rp.Left), right: p.right.Child(rp.Right),
			hasLeft: true, hasRight: true, renamed: true,
			leftScope: leftScope, rightScope: rightScope,
		})
	}
	for _, name := range gm.LeftOnly {
		w.enqueue(groupPair{left: p.left.Child(name), hasLeft: true, leftScope: leftScope})
	}
	for _, name := range gm.RightOnly {
		w.enqueue(groupPair{right: p.right.Child(name), hasRight: true, rightScope: rightScope})
	}

	w.b.Add(recs...)
}

// reportOneSided reports a group present on only one side, along with all
// of its dimensions, variables & attributes. subgroups are enqueued as
// one-sided pairs of their own
func (w *walker) reportOneSided(ctx context.Context, p groupPair, s side) {
	path, a, parent := p.left, w.left, p.leftScope
	if s == rightSide {
		path, a, parent = p.right, w.right, p.rightScope
	}
	w.log.WithFields(logrus.Fields{"path": path, "side": s}).Debug("reporting one-sided group")

	m, err := w.load(ctx, a, path)
	if err != nil {
		w.unreadable(p, s, err)
		return
	}
	scope := &dimScope{dims: m.dims, parent: parent}

	dimNames := w.names(path, m.dims)
	varNames := w.names(path, m.vars)
	subgroups := w.groupNames(path, m.subgroups)

	group := DiffRecord{Path: path, Kind: KindGroup, Detail: describeGroup(len(dimNames), len(varNames), len(subgroups))}
	setOneSided(&group, path.Base(), s)
	recs := []DiffRecord{group}

	for _, name := range dimNames {
		recs = append(recs, oneSidedDimension(path, "", m.dims[name], s))
	}
	for _, name := range varNames {
		recs = append(recs, w.oneSidedVariable(path, "", resolveShape(m.vars[name], scope), w.attrs(path, name, m.varAttrs[name]), s)...)
	}
	recs = append(recs, w.oneSidedAttributes(AttributeOwner{Path: path}, w.attrs(path, "", m.attrs), s)...)

	for _, name := range subgroups {
		child := groupPair{leftScope: scope, rightScope: scope}
		if s == leftSide {
			child.left, child.hasLeft = path.Child(name), true
		} else {
			child.right, child.hasRight = path.Child(name), true
		}
		w.enqueue(child)
	}

	w.b.Add(recs...)
}

// oneSidedVariable reports a variable & its attributes as added or removed.
// attrs must already be filtered
func (w *walker) oneSidedVariable(path, rightPath GroupPath, v VariableInfo, attrs Attributes, s side) []DiffRecord {
	rec := DiffRecord{Path: path, RightPath: rightPath, Kind: KindVariable, Detail: describeVariable(v, w.cfg.CompareChunks)}
	setOneSided(&rec, v.Name, s)
	owner := AttributeOwner{Path: path, RightPath: rightPath, Left: v.Name, Right: v.Name}
	return append([]DiffRecord{rec}, w.oneSidedAttributes(owner, attrs, s)...)
}

func (w *walker) oneSidedAttributes(owner AttributeOwner, attrs Attributes, s side) []DiffRecord {
	if s == leftSide {
		return DiffAttributes(owner, attrs, nil)
	}
	return DiffAttributes(owner, nil, attrs)
}

func (w *walker) enqueue(p groupPair) {
	w.queue = append(w.queue, p)
}

func (w *walker) match(left, right []string) MatchResult {
	return MatchNames(left, right, w.score, w.cfg.SimilarityThreshold)
}

// names lists the keys of a dimension or variable mapping, dropping any that
// match an ignore pattern
func (w *walker) names(path GroupPath, m interface{}) []string {
	var names []string
	switch x := m.(type) {
	case map[string]DimensionInfo:
		names = sortedKeys(x)
	case map[string]VariableInfo:
		names = sortedKeys(x)
	}
	return w.filter(path, names)
}

func (w *walker) groupNames(path GroupPath, names []string) []string {
	return w.filter(path, uniqueSorted(names))
}

func (w *walker) filter(path GroupPath, names []string) []string {
	if len(w.ignore) == 0 {
		return names
	}
	kept := names[:0:0]
	for _, name := range names {
		if !w.ignored(path.qualify(name)) {
			kept = append(kept, name)
		}
	}
	return kept
}

// attrs drops ignored attributes. attributes qualify as "/group/var:attr",
// group attributes as "/group:attr"
func (w *walker) attrs(path GroupPath, variable string, attrs Attributes) Attributes {
	if len(w.ignore) == 0 || len(attrs) == 0 {
		return attrs
	}
	prefix := path.String() + ":"
	if variable != "" {
		prefix = path.qualify(variable) + ":"
	}
	kept := make(Attributes, len(attrs))
	for k, v := range attrs {
		if !w.ignored(prefix + k) {
			kept[k] = v
		}
	}
	return kept
}

func (w *walker) ignored(qualified string) bool {
	for _, g := range w.ignore {
		if g.Match(qualified) {
			return true
		}
	}
	return false
}

func compareDimensions(path, rightPath GroupPath, l, r DimensionInfo, renamed bool) DiffRecord {
	rec := DiffRecord{
		Path:      path,
		RightPath: rightPath,
		Kind:      KindDimension,
		Left:      l.Name,
		Right:     r.Name,
		Status:    StatusSame,
		Detail:    "size " + l.sizeString(),
	}

	var diffs []string
	if renamed {
		diffs = append(diffs, fmt.Sprintf("renamed %s -> %s", l.Name, r.Name))
	}
	if l.Size != r.Size || l.Unlimited != r.Unlimited {
		diffs = append(diffs, fmt.Sprintf("size %s vs %s", l.sizeString(), r.sizeString()))
	}
	switch {
	case len(diffs) == 0:
	case renamed && len(diffs) == 1:
		rec.Status = StatusRenamed
		rec.Detail = diffs[0]
	default:
		rec.Status = StatusChanged
		rec.Detail = strings.Join(diffs, "; ")
	}
	return rec
}

func oneSidedDimension(path, rightPath GroupPath, d DimensionInfo, s side) DiffRecord {
	rec := DiffRecord{Path: path, RightPath: rightPath, Kind: KindDimension, Detail: "size " + d.sizeString()}
	setOneSided(&rec, d.Name, s)
	return rec
}

func setOneSided(rec *DiffRecord, name string, s side) {
	if s == leftSide {
		rec.Left = name
		rec.Status = StatusRemoved
	} else {
		rec.Right = name
		rec.Status = StatusAdded
	}
}

func describeGroup(dims, vars, groups int) string {
	return fmt.Sprintf("%s, %s, %s",
		plural(dims, "dimension", "dimensions"),
		plural(vars, "variable", "variables"),
		plural(groups, "subgroup", "subgroups"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
