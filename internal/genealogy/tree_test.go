package genealogy

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"stemma/internal/person"
	"stemma/internal/relationship"
	"stemma/pkg/domain"
	dErrors "stemma/pkg/domain-errors"
)

type TreeBuilderSuite struct {
	suite.Suite
	persons *person.Memory
	rels    *relationship.Memory
	builder *TreeBuilder
	ctx     context.Context
}

func (s *TreeBuilderSuite) SetupTest() {
	s.persons = person.NewMemory()
	s.rels = relationship.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.builder = NewTreeBuilder(s.persons, s.rels, logger, nil)
	s.ctx = context.Background()
}

func TestTreeBuilderSuite(t *testing.T) {
	suite.Run(t, new(TreeBuilderSuite))
}

func (s *TreeBuilderSuite) addPerson(id int64, name string) {
	s.Require().NoError(s.persons.Put(s.ctx, &person.Person{
		ID:          id,
		PrimaryName: name,
		ValidFrom:   domain.MustParseDate("1800-01-01"),
	}))
}

func (s *TreeBuilderSuite) addEdge(id int64, relType string, leftID, rightID int64) {
	s.Require().NoError(s.rels.Put(s.ctx, &relationship.Relationship{
		ID:               id,
		RelationshipType: relType,
		LeftEntityType:   relationship.EntityTypePerson,
		LeftEntityID:     leftID,
		RightEntityType:  relationship.EntityTypePerson,
		RightEntityID:    rightID,
		ValidFrom:        domain.MustParseDate("1800-01-01"),
	}))
}

// seedThreeGenerations: 1 and 2 are parents of 3; 3 is parent of 4 and 5.
func (s *TreeBuilderSuite) seedThreeGenerations() {
	for id, name := range map[int64]string{1: "Grandfather", 2: "Grandmother", 3: "Parent", 4: "Child A", 5: "Child B"} {
		s.addPerson(id, name)
	}
	s.addEdge(1, relationship.TypeParentChild, 1, 3)
	s.addEdge(2, relationship.TypeParentChild, 2, 3)
	s.addEdge(3, relationship.TypeParentChild, 3, 4)
	s.addEdge(4, relationship.TypeParentChild, 3, 5)
}

func (s *TreeBuilderSuite) TestAncestorsOnly() {
	s.seedThreeGenerations()

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 3,
		Direction:    DirectionAncestors,
		Depth:        4,
	})
	s.Require().NoError(err)

	s.Len(tree.Nodes, 3) // 3 and its two parents
	s.Len(tree.Edges, 2)
	s.Require().Len(tree.LevelsAncestors, 2)
	s.Equal([]int64{3}, tree.LevelsAncestors[0].PersonIDs)
	s.Equal([]int64{1, 2}, tree.LevelsAncestors[1].PersonIDs)
	s.Nil(tree.LevelsDescendants)
}

func (s *TreeBuilderSuite) TestDescendantsOnly() {
	s.seedThreeGenerations()

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 3,
		Direction:    DirectionDescendants,
		Depth:        4,
	})
	s.Require().NoError(err)

	s.Len(tree.Nodes, 3) // 3 and its two children
	s.Require().Len(tree.LevelsDescendants, 2)
	s.Equal([]int64{4, 5}, tree.LevelsDescendants[1].PersonIDs)
	s.Nil(tree.LevelsAncestors)
}

func (s *TreeBuilderSuite) TestBothDirections() {
	s.seedThreeGenerations()

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 3,
		Direction:    DirectionBoth,
		Depth:        4,
	})
	s.Require().NoError(err)

	s.Len(tree.Nodes, 5)
	s.Len(tree.Edges, 4)
	s.Require().Len(tree.LevelsAncestors, 2)
	s.Require().Len(tree.LevelsDescendants, 2)
}

func (s *TreeBuilderSuite) TestDepthLimitsExpansion() {
	// Chain 1 -> 2 -> 3 -> 4.
	for id := int64(1); id <= 4; id++ {
		s.addPerson(id, "Person")
	}
	s.addEdge(1, relationship.TypeParentChild, 1, 2)
	s.addEdge(2, relationship.TypeParentChild, 2, 3)
	s.addEdge(3, relationship.TypeParentChild, 3, 4)

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 1,
		Direction:    DirectionDescendants,
		Depth:        2,
	})
	s.Require().NoError(err)

	s.Len(tree.Nodes, 3) // 1, 2, 3; person 4 is beyond depth 2
	s.Require().Len(tree.LevelsDescendants, 3)
	s.Equal([]int64{3}, tree.LevelsDescendants[2].PersonIDs)
}

func (s *TreeBuilderSuite) TestDepthIsClamped() {
	s.seedThreeGenerations()

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 3,
		Direction:    DirectionAncestors,
		Depth:        99,
	})
	s.Require().NoError(err)
	s.Equal(MaxDepth, tree.Depth)

	tree, err = s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 3,
		Direction:    DirectionAncestors,
		Depth:        -1,
	})
	s.Require().NoError(err)
	s.Equal(MinDepth, tree.Depth)
}

func (s *TreeBuilderSuite) TestMarriagesAttachWithoutExpansion() {
	s.seedThreeGenerations()
	// Spouse of child A, plus the spouse's own parent who must stay invisible.
	s.addPerson(6, "Spouse")
	s.addPerson(7, "Spouse parent")
	s.addEdge(5, relationship.TypeMarriage, 4, 6)
	s.addEdge(6, relationship.TypeParentChild, 7, 6)

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID:     3,
		Direction:        DirectionDescendants,
		Depth:            4,
		IncludeMarriages: true,
	})
	s.Require().NoError(err)

	ids := make(map[int64]bool)
	for _, n := range tree.Nodes {
		ids[n.ID] = true
	}
	s.True(ids[6], "spouse should be attached")
	s.False(ids[7], "lineage must not expand through spouses")

	// Spouses carry no breadth level.
	for _, level := range tree.LevelsDescendants {
		s.NotContains(level.PersonIDs, int64(6))
	}
}

func (s *TreeBuilderSuite) TestMarriagesExcludedOnRequest() {
	s.seedThreeGenerations()
	s.addPerson(6, "Spouse")
	s.addEdge(5, relationship.TypeMarriage, 4, 6)

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID:     3,
		Direction:        DirectionDescendants,
		Depth:            4,
		IncludeMarriages: false,
	})
	s.Require().NoError(err)
	for _, n := range tree.Nodes {
		s.NotEqual(int64(6), n.ID)
	}
	for _, e := range tree.Edges {
		s.NotEqual(relationship.TypeMarriage, e.RelationshipType)
	}
}

func (s *TreeBuilderSuite) TestEdgesSortedByID() {
	s.seedThreeGenerations()

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 3,
		Direction:    DirectionBoth,
		Depth:        4,
	})
	s.Require().NoError(err)
	for i := 1; i < len(tree.Edges); i++ {
		s.Less(tree.Edges[i-1].ID, tree.Edges[i].ID)
	}
}

func (s *TreeBuilderSuite) TestMissingEndpointTolerated() {
	s.addPerson(1, "Parent")
	// Child 2 has an edge but no person record.
	s.addEdge(1, relationship.TypeParentChild, 1, 2)

	tree, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 1,
		Direction:    DirectionDescendants,
		Depth:        4,
	})
	s.Require().NoError(err)
	s.Len(tree.Nodes, 1)
	s.Len(tree.Edges, 1)
}

func (s *TreeBuilderSuite) TestUnknownRootRejected() {
	_, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 42,
		Direction:    DirectionAncestors,
		Depth:        4,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *TreeBuilderSuite) TestUnknownDirectionRejected() {
	s.addPerson(1, "Person")
	_, err := s.builder.BuildPersonTree(s.ctx, BuildTreeRequest{
		RootPersonID: 1,
		Direction:    Direction("sideways"),
		Depth:        4,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
