package layout

import (
	"math/rand/v2"

	"github.com/matzehuels/mangaforge/pkg/panel"
)

// Recipe divides a page into a fixed number of leaves. axis is the first
// split's axis.
type Recipe func(rng *rand.Rand, pg *panel.Panel, axis panel.Orientation)

// Recipes lists the named mixed-page recipes per panel count. Every recipe
// for count n produces exactly n leaves.
var Recipes = map[int][]string{
	2: {"two"},
	3: {"twoone"},
	4: {"eq", "uneq", "div", "trip", "twoonethree"},
	5: {"eq", "uneq", "div", "twotwothree", "threetwotwo", "fourtwoone"},
	6: {"tripeq", "tripuneq", "twofourtwo", "twothreethree", "fourtwotwo"},
	7: {"twothreefour", "threethreetwotwo", "threefourtwoone", "threethreextwoone", "fourthreextwo"},
	8: {"fourfourxtwoeq", "fourfourxtwouneq", "threethreethreetwo", "threefourtwotwo", "threethreefourone"},
}

// BuildBase splits the page according to its PageType and NumPanels. A zero
// NumPanels is drawn for the page type first. For mixed pages recipe picks a
// named recipe from [Recipes]; an empty name draws one.
func BuildBase(rng *rand.Rand, pg *panel.Page, recipe string) {
	root := pg.Root()
	switch pg.PageType {
	case panel.PageVertical:
		if pg.NumPanels < 1 {
			pg.NumPanels = 3 + rng.IntN(2)
		}
		SplitShifted(rng, root, pg.NumPanels, panel.Vertical, nil)
	case panel.PageHorizontal:
		if pg.NumPanels < 1 {
			pg.NumPanels = randint(rng, 3, 6)
		}
		SplitShifted(rng, root, pg.NumPanels, panel.Horizontal, nil)
	default:
		if pg.NumPanels < 1 {
			pg.NumPanels = randint(rng, 2, MaxPanels+1)
		}
		buildMixed(rng, root, pg.NumPanels, recipe)
	}
	pg.InvalidateLeaves()
}

func buildMixed(rng *rand.Rand, root *panel.Panel, n int, recipe string) {
	names, ok := Recipes[n]
	if !ok {
		// One panel, or more than any recipe handles: fall back to a plain
		// shifted split.
		SplitShifted(rng, root, n, pickAxis(rng), nil)
		return
	}
	axis := pickAxis(rng)
	if recipe == "" {
		recipe = names[rng.IntN(len(names))]
	}
	key := recipeKey{n, recipe}
	fn, ok := recipeTable[key]
	if !ok {
		fn = recipeTable[recipeKey{n, names[0]}]
	}
	fn(rng, root, axis)
}

type recipeKey struct {
	n    int
	name string
}

var recipeTable = map[recipeKey]Recipe{
	{2, "two"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0)
	},
	{3, "twoone"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0)
		SplitTwo(rng, choose(rng, p), invert(a), 0)
	},

	{4, "eq"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0.5)
		shift := drawShift(rng)
		SplitTwo(rng, p.Child(0), invert(a), shift)
		SplitTwo(rng, p.Child(1), invert(a), shift)
	},
	{4, "uneq"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0.5)
		SplitTwo(rng, p.Child(0), invert(a), 0)
		SplitTwo(rng, p.Child(1), invert(a), 0)
	},
	{4, "div"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0.5)
		c1 := choose(rng, p)
		SplitTwo(rng, c1, invert(a), 0)
		SplitTwo(rng, choose(rng, c1), a, 0)
	},
	{4, "trip"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitEqual(p, 3, a)
		SplitTwo(rng, choose(rng, p), invert(a), 0)
	},
	{4, "twoonethree"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0)
		SplitShifted(rng, choose(rng, p), 3, invert(a), nil)
	},

	{5, "eq"}:   fiveQuarters(true),
	{5, "uneq"}: fiveQuarters(false),
	{5, "div"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0.5)
		SplitTwo(rng, p.Child(0), invert(a), 0)
		SplitTwo(rng, p.Child(1), invert(a), 0)
		half := choose(rng, p)
		SplitTwo(rng, choose(rng, half), a, 0.5)
	},
	{5, "twotwothree"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0.5)
		c, others := chooseAndRest(rng, p)
		SplitTwo(rng, c, invert(a), 0)
		SplitEqual(others[0], 3, invert(a))
	},
	{5, "threetwotwo"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitEqual(p, 3, a)
		c1, others := chooseAndRest(rng, p)
		c2 := others[rng.IntN(len(others))]
		SplitTwo(rng, c1, invert(a), 0)
		SplitTwo(rng, c2, invert(a), 0)
	},
	{5, "fourtwoone"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitEqual(p, 4, a)
		SplitTwo(rng, choose(rng, p), invert(a), 0)
	},

	{6, "tripeq"}:   sixTriples(true),
	{6, "tripuneq"}: sixTriples(false),
	{6, "twofourtwo"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0)
		SplitShifted(rng, p.Child(0), 4, invert(a), nil)
		SplitTwo(rng, p.Child(1), invert(a), 0)
	},
	{6, "twothreethree"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0)
		for _, c := range p.Children {
			SplitShifted(rng, c, 3, invert(a), nil)
		}
	},
	{6, "fourtwotwo"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitShifted(rng, p, 4, a, nil)
		c1, others := chooseAndRest(rng, p)
		c2 := others[rng.IntN(len(others))]
		SplitTwo(rng, c1, invert(a), 0)
		SplitTwo(rng, c2, invert(a), 0)
	},

	{7, "twothreefour"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0.5)
		c, others := chooseAndRest(rng, p)
		SplitShifted(rng, c, 4, invert(a), nil)
		SplitShifted(rng, others[0], 3, invert(a), nil)
	},
	{7, "threethreetwotwo"}: func(rng *rand.Rand, p *panel.Panel, _ panel.Orientation) {
		SplitEqual(p, 3, panel.Horizontal)
		c, others := chooseAndRest(rng, p)
		SplitShifted(rng, c, 3, panel.Vertical, nil)
		SplitTwo(rng, others[0], panel.Vertical, 0)
		SplitTwo(rng, others[1], panel.Vertical, 0)
	},
	{7, "threefourtwoone"}: func(rng *rand.Rand, p *panel.Panel, _ panel.Orientation) {
		SplitEqual(p, 3, panel.Horizontal)
		c, others := chooseAndRest(rng, p)
		other := others[rng.IntN(len(others))]
		SplitShifted(rng, c, 4, panel.Vertical, nil)
		SplitTwo(rng, other, panel.Vertical, 0)
	},
	{7, "threethreextwoone"}: func(rng *rand.Rand, p *panel.Panel, _ panel.Orientation) {
		SplitEqual(p, 3, panel.Horizontal)
		c, others := chooseAndRest(rng, p)
		SplitShifted(rng, c, 3, panel.Vertical, nil)
		SplitShifted(rng, others[0], 3, panel.Vertical, nil)
	},
	{7, "fourthreextwo"}: func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitEqual(p, 4, a)
		_, others := chooseAndRest(rng, p)
		for _, c := range others {
			SplitTwo(rng, c, invert(a), 0)
		}
	},

	{8, "fourfourxtwoeq"}:   eightPairs(true),
	{8, "fourfourxtwouneq"}: eightPairs(false),
	{8, "threethreethreetwo"}: func(rng *rand.Rand, p *panel.Panel, _ panel.Orientation) {
		SplitEqual(p, 3, panel.Horizontal)
		c, others := chooseAndRest(rng, p)
		SplitTwo(rng, c, panel.Vertical, 0)
		for _, o := range others {
			SplitShifted(rng, o, 3, panel.Vertical, nil)
		}
	},
	{8, "threefourtwotwo"}: func(rng *rand.Rand, p *panel.Panel, _ panel.Orientation) {
		SplitEqual(p, 3, panel.Horizontal)
		c, others := chooseAndRest(rng, p)
		SplitShifted(rng, c, 4, panel.Vertical, nil)
		for _, o := range others {
			SplitTwo(rng, o, panel.Vertical, 0)
		}
	},
	{8, "threethreefourone"}: func(rng *rand.Rand, p *panel.Panel, _ panel.Orientation) {
		SplitEqual(p, 3, panel.Horizontal)
		c, others := chooseAndRest(rng, p)
		other := others[rng.IntN(len(others))]
		SplitShifted(rng, c, 3, panel.Vertical, nil)
		SplitShifted(rng, other, 4, panel.Vertical, nil)
	},
}

// fiveQuarters halves the page, halves one half across, then halves both of
// those pieces again. With shared set, both final splits use one shift.
func fiveQuarters(shared bool) Recipe {
	return func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitTwo(rng, p, a, 0.5)
		c := choose(rng, p)
		SplitTwo(rng, c, invert(a), 0)
		var shift float64
		if shared {
			shift = drawShift(rng)
		}
		SplitTwo(rng, c.Child(0), a, shift)
		SplitTwo(rng, c.Child(1), a, shift)
	}
}

// sixTriples splits the page in three and every third in two.
func sixTriples(shared bool) Recipe {
	return func(rng *rand.Rand, p *panel.Panel, a panel.Orientation) {
		SplitShifted(rng, p, 3, a, nil)
		var shift float64
		if shared {
			shift = drawShift(rng)
		}
		for _, c := range p.Children {
			SplitTwo(rng, c, invert(a), shift)
		}
	}
}

// eightPairs stacks four equal rows and splits each side by side.
func eightPairs(shared bool) Recipe {
	return func(rng *rand.Rand, p *panel.Panel, _ panel.Orientation) {
		SplitEqual(p, 4, panel.Horizontal)
		var shift float64
		if shared {
			shift = drawShift(rng)
		}
		for _, c := range p.Children {
			SplitTwo(rng, c, panel.Vertical, shift)
		}
	}
}

func drawShift(rng *rand.Rand) float64 {
	return float64(randint(rng, 25, 75)) / 100
}

// choose returns a random child of p.
func choose(rng *rand.Rand, p *panel.Panel) *panel.Panel {
	return p.Children[rng.IntN(len(p.Children))]
}

// chooseAndRest returns a random child of p and the remaining children in
// order.
func chooseAndRest(rng *rand.Rand, p *panel.Panel) (*panel.Panel, []*panel.Panel) {
	i := rng.IntN(len(p.Children))
	rest := make([]*panel.Panel, 0, len(p.Children)-1)
	for j, c := range p.Children {
		if j != i {
			rest = append(rest, c)
		}
	}
	return p.Children[i], rest
}
