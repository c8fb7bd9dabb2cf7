package domain

import "fmt"

// Skeleton names keypoint ids and lists which ids are joined by a limb
type Skeleton struct {
	Names []string
	Pairs [][2]int
}

// DefaultSkeleton is the 19 point layout: body joints plus a three segment club
func DefaultSkeleton() Skeleton {
	names := make([]string, 19)
	for i := range names {
		names[i] = fmt.Sprintf("KP%d", i)
	}
	return Skeleton{
		Names: names,
		Pairs: [][2]int{
			{0, 1}, {0, 2},
			{3, 4}, {4, 10}, {3, 9}, {9, 10},
			{3, 5}, {5, 7}, {4, 6}, {6, 8},
			{9, 11}, {11, 13}, {10, 12}, {12, 14},
			{15, 16}, {16, 17}, {17, 18},
		},
	}
}

// Name returns the label of a keypoint id; ids past the name list wrap around
func (s Skeleton) Name(idx int) string {
	if len(s.Names) == 0 || idx < 0 {
		return fmt.Sprintf("KP%d", idx)
	}
	return s.Names[idx%len(s.Names)]
}

// Clone returns a copy that shares no slices with s
func (s Skeleton) Clone() Skeleton {
	return Skeleton{
		Names: append([]string(nil), s.Names...),
		Pairs: append([][2]int(nil), s.Pairs...),
	}
}
