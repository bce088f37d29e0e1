package cardview

import (
	"bytes"
	"strings"
	"testing"

	"ms-fidelity/internal/cards/catalog"
	"ms-fidelity/internal/i18n"
	"ms-fidelity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func english() i18n.Translator {
	return i18n.NewResolver("it").For(i18n.English)
}

func cafeX() models.Program {
	return models.Program{
		ID:              "p1",
		RestaurantID:    "r1",
		IsActive:        true,
		DiscoveryQRCode: "abc",
		StampsRequired:  5,
		DisplayName:     "Cafe X",
		LocationName:    "Milano Centro",
	}
}

func TestBuildUnownedScenario(t *testing.T) {
	v := Build(catalog.Entry{Program: cafeX()}, english())

	assert.Equal(t, ActionGetCard, v.Action)
	assert.Equal(t, "Get This Card", v.ActionLabel)
	assert.False(t, v.Disabled)
	assert.True(t, v.Dimmed)
	assert.Len(t, v.Slots, 5)
	assert.Equal(t, 3, v.FilledCount())
	assert.Equal(t, "false", v.DataOwned())
	assert.Equal(t, "cafe x", v.DataName)
	assert.Equal(t, "milano centro", v.DataLocation)
}

func TestBuildCompletedScenario(t *testing.T) {
	e := catalog.Entry{
		Program:    cafeX(),
		Enrollment: &models.Enrollment{CurrentStamps: 5, IsCompleted: true, CardNumber: 12345678},
	}
	v := Build(e, english())

	assert.Equal(t, ActionRewardEarned, v.Action)
	assert.Equal(t, "🎉 Reward Earned!", v.ActionLabel)
	assert.True(t, v.Disabled)
	assert.False(t, v.Dimmed)
	assert.Equal(t, 5, v.FilledCount())
	assert.Equal(t, "true", v.DataOwned())
}

func TestBuildOwnedInProgress(t *testing.T) {
	e := catalog.Entry{
		Program:    cafeX(),
		Enrollment: &models.Enrollment{CurrentStamps: 2, CardNumber: 87654321},
	}
	v := Build(e, english())

	assert.Equal(t, ActionShowCode, v.Action)
	assert.Equal(t, "Show QR Code", v.ActionLabel)
	assert.Equal(t, 2, v.Current)
	assert.Equal(t, 5, v.Target)
	assert.Equal(t, 2, v.FilledCount())
	assert.Equal(t, int64(87654321), v.CardNumber)
	assert.Equal(t, "✓ Your Card", v.OwnedBadge)
}

func TestSlotCountIsCappedRegardlessOfOwnership(t *testing.T) {
	for _, target := range []int{0, 1, 3, 5, 10, 12, 30} {
		p := cafeX()
		p.StampsRequired = target
		want := p.StampTarget()
		if want > MaxSlots {
			want = MaxSlots
		}

		unowned := Build(catalog.Entry{Program: p}, english())
		owned := Build(catalog.Entry{Program: p, Enrollment: &models.Enrollment{CurrentStamps: 1}}, english())

		assert.Len(t, unowned.Slots, want, "target %d", target)
		assert.Len(t, owned.Slots, want, "target %d", target)
	}
}

func TestFilledSlotsFollowStamps(t *testing.T) {
	p := cafeX()
	p.StampsRequired = 8
	for n := 0; n <= 8; n++ {
		v := Build(catalog.Entry{Program: p, Enrollment: &models.Enrollment{CurrentStamps: n}}, english())
		assert.Equal(t, n, v.FilledCount())
		for i, s := range v.Slots {
			assert.Equal(t, i < n, s.Filled)
		}
	}
}

func TestBuildDefaults(t *testing.T) {
	v := Build(catalog.Entry{Program: models.Program{ID: "p9"}}, english())
	assert.Equal(t, "Restaurant", v.Name)
	assert.Equal(t, "Free Item", v.Reward)
	assert.Equal(t, "R", v.Initial)
	assert.Equal(t, 10, v.Target)
	assert.Equal(t, "", v.DataName)

	it := Build(catalog.Entry{Program: models.Program{ID: "p9"}}, i18n.NewResolver("it").For(i18n.Italian))
	assert.Equal(t, "Ottieni Questa Carta", it.ActionLabel)
}

func TestBackground(t *testing.T) {
	assert.Contains(t, Background("https://cdn/bg.png", "#112233"), "url('https://cdn/bg.png')")
	assert.Equal(t, "background: #112233;", Background("", "#112233"))
	assert.Equal(t, "background: "+DefaultGradient+";", Background("", ""))
	assert.Equal(t, "background: "+DefaultGradient+";", Background("", "red; position: fixed"))
	assert.Contains(t, Background("https://x/a.png'); color: red; (", ""), "a.png%27%29; color: red; %28')")
}

func TestRenderCard(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.RenderCard(&buf, Build(catalog.Entry{Program: cafeX()}, english())))
	out := buf.String()

	assert.Contains(t, out, `data-card-id="p1"`)
	assert.Contains(t, out, `data-qr-code="abc"`)
	assert.Contains(t, out, `data-restaurant-id="r1"`)
	assert.Contains(t, out, `data-name="cafe x"`)
	assert.Contains(t, out, `data-location="milano centro"`)
	assert.Contains(t, out, `data-owned="false"`)
	assert.Contains(t, out, "Get This Card")
	assert.Contains(t, out, `action="/programs/p1/enroll"`)
	assert.Contains(t, out, "card-dim-overlay")
	assert.Contains(t, out, DefaultGradient)
	assert.Equal(t, 3, strings.Count(out, "stamp-preview demo-filled"))
	assert.Equal(t, 5, strings.Count(out, `class="stamp-preview`))
}

func TestRenderOwnedCard(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	e := catalog.Entry{Program: cafeX(), Enrollment: &models.Enrollment{CurrentStamps: 4}}
	require.NoError(t, r.RenderCard(&buf, Build(e, english())))
	out := buf.String()

	assert.Contains(t, out, "4/5")
	assert.Contains(t, out, `href="/programs/p1/code"`)
	assert.Contains(t, out, `data-owned="true"`)
	assert.NotContains(t, out, "card-dim-overlay")
	assert.Equal(t, 4, strings.Count(out, `class="stamp-preview filled"`))
	assert.NotContains(t, out, "demo-filled")
}

func TestRenderGridStates(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	tr := english()

	var buf bytes.Buffer
	require.NoError(t, r.RenderGrid(&buf, NewGridView(nil, tr)))
	assert.Contains(t, buf.String(), "No active loyalty programs available.")

	buf.Reset()
	g := NewGridView(nil, tr)
	g.Error = true
	require.NoError(t, r.RenderGrid(&buf, g))
	assert.Contains(t, buf.String(), "Error loading programs")

	buf.Reset()
	g = NewGridView(nil, tr)
	g.NoCards = true
	require.NoError(t, r.RenderGrid(&buf, g))
	assert.Contains(t, buf.String(), "No cards yet")
}

func TestRenderCodeModal(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	e := catalog.Entry{Program: cafeX(), Enrollment: &models.Enrollment{CardNumber: 12345678}}
	var buf bytes.Buffer
	require.NoError(t, r.RenderCodeModal(&buf, NewCodeModalView(e, 280, "/programs", english())))
	out := buf.String()

	assert.Contains(t, out, "#12345678")
	assert.Contains(t, out, `src="/programs/p1/code.png"`)
	assert.Contains(t, out, "Show this code to staff to collect stamps")
}
