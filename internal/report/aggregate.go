// Package report turns member and payment snapshots into period totals.
//
// Every function here is pure: it reads the slices it is given, never
// mutates them, and returns freshly allocated results.
package report

import (
	"sort"

	"tithe/internal/core"
)

// Predicate selects payments by the date they were paid.
type Predicate func(core.Date) bool

// joined is a payment matched with the member who made it.
type joined struct {
	member  core.Member
	payment core.Payment
}

// join filters payments by pred and inner-joins them to members on member id.
// Payments pointing at an unknown member are dropped.
func join(members []core.Member, payments []core.Payment, pred Predicate) []joined {
	byID := make(map[int64]core.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	out := make([]joined, 0, len(payments))
	for _, p := range payments {
		if pred != nil && !pred(p.DatePaid) {
			continue
		}
		m, ok := byID[p.MemberID]
		if !ok {
			continue
		}
		out = append(out, joined{member: m, payment: p})
	}
	return out
}

// group sums joined rows per key, keeping keys in order of first appearance.
func group[K comparable](rows []joined, key func(core.Member) K) ([]K, map[K]core.Money) {
	var order []K
	sums := make(map[K]core.Money)
	for _, r := range rows {
		k := key(r.member)
		sum, seen := sums[k]
		if !seen {
			order = append(order, k)
			sum = core.ZeroMoney()
		}
		sums[k] = sum.Add(r.payment.Amount)
	}
	return order, sums
}

// ByMember totals payments per member full name, largest total first.
// Two members sharing a full name are reported as one row.
func ByMember(members []core.Member, payments []core.Payment, pred Predicate) []core.MemberTotal {
	order, sums := group(join(members, payments, pred), core.Member.FullName)

	out := make([]core.MemberTotal, 0, len(order))
	for _, name := range order {
		out = append(out, core.MemberTotal{FullName: name, Total: sums[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cmp(out[j].Total) > 0
	})
	return out
}

// ByClass totals payments per Bible class in class declaration order.
func ByClass(members []core.Member, payments []core.Payment, pred Predicate) []core.ClassTotal {
	order, sums := group(join(members, payments, pred), func(m core.Member) core.BibleClass {
		return m.BibleClass
	})

	out := make([]core.ClassTotal, 0, len(order))
	for _, c := range order {
		out = append(out, core.ClassTotal{Class: c, Total: sums[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Class < out[j].Class
	})
	return out
}

// ByOrganization totals payments per organization in declaration order.
func ByOrganization(members []core.Member, payments []core.Payment, pred Predicate) []core.OrganizationTotal {
	order, sums := group(join(members, payments, pred), func(m core.Member) core.Organization {
		return m.Organization
	})

	out := make([]core.OrganizationTotal, 0, len(order))
	for _, o := range order {
		out = append(out, core.OrganizationTotal{Organization: o, Total: sums[o]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Organization < out[j].Organization
	})
	return out
}

// WithNames resolves each payment's payer name from the current member list.
// Payments whose member no longer exists are dropped.
func WithNames(members []core.Member, payments []core.Payment) []core.PaymentWithName {
	rows := join(members, payments, nil)
	out := make([]core.PaymentWithName, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.PaymentWithName{
			Payment:   r.payment,
			FirstName: r.member.FirstName,
			LastName:  r.member.LastName,
		})
	}
	return out
}

// Total sums a slice of group totals.
func Total(rows []core.GroupTotal) core.Money {
	sum := core.ZeroMoney()
	for _, r := range rows {
		sum = sum.Add(r.Total)
	}
	return sum
}
