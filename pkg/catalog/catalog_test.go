package catalog

import (
	"slices"
	"testing"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func res(id string, kind domain.Kind) domain.Resource {
	return domain.Resource{ID: id, Kind: kind, Attributes: map[string]any{}}
}

func TestCatalog_Add(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Add(res("vpc-1", domain.KindVPC)))
		require.NoError(t, c.Add(res("subnet-1", domain.KindSubnet)))

		assert.Equal(t, 2, c.Len())
		assert.True(t, c.Has("vpc-1"))
		assert.Equal(t, 1, c.Index("subnet-1"))
		assert.Equal(t, -1, c.Index("missing"))
	})

	t.Run("duplicate id", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Add(res("vpc-1", domain.KindVPC)))

		err := c.Add(res("vpc-1", domain.KindSubnet))
		assert.ErrorIs(t, err, ErrDuplicateID)
		assert.Contains(t, err.Error(), "vpc-1")

		got, err := c.Get("vpc-1")
		require.NoError(t, err)
		assert.Equal(t, domain.KindVPC, got.Kind)
	})

	t.Run("stores a copy", func(t *testing.T) {
		c := New()
		r := res("i-1", domain.KindInstance)
		r.Attributes[domain.AttrSubnetID] = "subnet-1"
		require.NoError(t, c.Add(r))

		r.Attributes[domain.AttrSubnetID] = "subnet-2"

		got, err := c.Get("i-1")
		require.NoError(t, err)
		assert.Equal(t, "subnet-1", got.Str(domain.AttrSubnetID))
	})
}

func TestCatalog_Get_ReturnsCopy(t *testing.T) {
	c := New()
	r := res("i-1", domain.KindInstance)
	r.Attributes[domain.AttrSubnetID] = "subnet-1"
	require.NoError(t, c.Add(r))

	got, err := c.Get("i-1")
	require.NoError(t, err)
	got.Attributes[domain.AttrSubnetID] = "subnet-2"
	got.Name = "renamed"

	again, err := c.Get("i-1")
	require.NoError(t, err)
	assert.Equal(t, "subnet-1", again.Str(domain.AttrSubnetID))
	assert.Empty(t, again.Name)
}

func TestCatalog_Get_NotFound(t *testing.T) {
	c := New()
	_, err := c.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_AllOfKind(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(res("i-2", domain.KindInstance)))
	require.NoError(t, c.Add(res("vpc-1", domain.KindVPC)))
	require.NoError(t, c.Add(res("i-1", domain.KindInstance)))

	ids := func() []string {
		var out []string
		for r := range c.AllOfKind(domain.KindInstance) {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []string{"i-2", "i-1"}, ids())
	// restartable
	assert.Equal(t, []string{"i-2", "i-1"}, ids())

	for range c.AllOfKind(domain.KindInstance) {
		break
	}
	assert.Empty(t, slices.Collect(c.AllOfKind(domain.KindS3Bucket)))
	assert.Len(t, slices.Collect(c.All()), 3)
	assert.Equal(t, []domain.Kind{domain.KindVPC, domain.KindInstance}, c.Kinds())
}

func TestFromSnapshot(t *testing.T) {
	snap := map[domain.Kind][]domain.Resource{
		domain.KindS3Bucket: {res("arn:aws:s3:::b", domain.KindS3Bucket)},
		domain.KindSubnet:   {res("subnet-1", domain.KindSubnet)},
		domain.KindVPC:      {res("vpc-1", "")},
	}

	c, err := FromSnapshot(snap)
	require.NoError(t, err)

	var ids []string
	for r := range c.All() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"vpc-1", "subnet-1", "arn:aws:s3:::b"}, ids)

	vpc, err := c.Get("vpc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.KindVPC, vpc.Kind)

	t.Run("duplicate across kinds", func(t *testing.T) {
		_, err := FromSnapshot(map[domain.Kind][]domain.Resource{
			domain.KindVPC:    {res("x", domain.KindVPC)},
			domain.KindSubnet: {res("x", domain.KindSubnet)},
		})
		assert.ErrorIs(t, err, ErrDuplicateID)
	})
}
