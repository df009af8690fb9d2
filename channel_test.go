package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func tempChannelFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), fmt.Sprintf("recorder_share_%s.dat", t.Name()))
}

func TestChansNewWritesValidHeader(t *testing.T) {
	path := tempChannelFile(t)
	set, err := ChansNew(path)
	if err != nil {
		t.Fatalf("ChansNew: %v", err)
	}
	defer set.Close()

	h := (*shareHeader)(set.mm.ptr(0))
	if h.magic != shareMagic || h.version != shareVersion {
		t.Fatalf("header magic/version = %x/%d, want %x/%d", h.magic, h.version, shareMagic, shareVersion)
	}
}

func TestChanNewAndWriteRead(t *testing.T) {
	path := tempChannelFile(t)
	set, err := ChansNew(path)
	if err != nil {
		t.Fatalf("ChansNew: %v", err)
	}
	defer set.Close()

	ch, err := set.ChanNew("latency_us", "p50 latency", "us", 8)
	if err != nil {
		t.Fatalf("ChanNew: %v", err)
	}
	if ch.Name() != "latency_us" || ch.Description() != "p50 latency" || ch.Unit() != "us" {
		t.Fatalf("channel metadata mismatch: name=%q desc=%q unit=%q", ch.Name(), ch.Description(), ch.Unit())
	}

	ch.Write(100, 42)
	ch.Write(200, 43)

	var cursor uint64
	out := make([]Sample, 2)
	n, err := ch.r().read(out, &cursor)
	if err != nil || n != 2 {
		t.Fatalf("read = (%d, %v), want (2, nil)", n, err)
	}
	if out[0].Value != 42 || out[1].Value != 43 {
		t.Fatalf("samples = %+v, want values 42 then 43", out)
	}
}

func TestChanNewAllocatesPowerOfTwoRing(t *testing.T) {
	path := tempChannelFile(t)
	set, err := ChansNew(path)
	if err != nil {
		t.Fatalf("ChansNew: %v", err)
	}
	defer set.Close()

	ch, err := set.ChanNew("odd_capacity", "", "", 5)
	if err != nil {
		t.Fatalf("ChanNew: %v", err)
	}
	if got := ch.Size(); got != 8 {
		t.Fatalf("Size() = %d, want 8", got)
	}
}

func TestChanDeleteReusesFreeList(t *testing.T) {
	path := tempChannelFile(t)
	set, err := ChansNew(path)
	if err != nil {
		t.Fatalf("ChansNew: %v", err)
	}
	defer set.Close()

	ch, err := set.ChanNew("to_delete", "", "", 8)
	if err != nil {
		t.Fatalf("ChanNew: %v", err)
	}
	offsetBefore := ch.offset

	header := (*shareHeader)(set.mm.ptr(0))
	bumpBefore := header.offset

	if err := set.ChanDelete(ch); err != nil {
		t.Fatalf("ChanDelete: %v", err)
	}
	if header.freeList == 0 {
		t.Fatalf("ChanDelete did not populate free list")
	}

	reused, err := set.ChanNew("reused", "", "", 8)
	if err != nil {
		t.Fatalf("ChanNew after delete: %v", err)
	}
	if reused.offset != offsetBefore {
		t.Fatalf("ChanNew after delete did not reuse the freed block: got offset %d, want %d", reused.offset, offsetBefore)
	}
	if header.offset != bumpBefore {
		t.Fatalf("bump allocator advanced on a free-list reuse: offset=%d, want unchanged at %d", header.offset, bumpBefore)
	}
}

func TestChanFindMatchesByFullRegex(t *testing.T) {
	path := tempChannelFile(t)
	set, err := ChansNew(path)
	if err != nil {
		t.Fatalf("ChansNew: %v", err)
	}
	defer set.Close()

	if _, err := set.ChanNew("net.tcp.latency_us", "", "", 8); err != nil {
		t.Fatalf("ChanNew: %v", err)
	}
	if _, err := set.ChanNew("disk.io.latency_us", "", "", 8); err != nil {
		t.Fatalf("ChanNew: %v", err)
	}

	found, err := set.ChanFind("net\\..*")
	if err != nil {
		t.Fatalf("ChanFind: %v", err)
	}
	if len(found) != 1 || found[0].Name() != "net.tcp.latency_us" {
		t.Fatalf("ChanFind returned %v, want exactly net.tcp.latency_us", found)
	}
}

func TestChanTypeInstalledOnce(t *testing.T) {
	path := tempChannelFile(t)
	set, err := ChansNew(path)
	if err != nil {
		t.Fatalf("ChansNew: %v", err)
	}
	defer set.Close()

	ch, err := set.ChanNew("typed", "", "", 8)
	if err != nil {
		t.Fatalf("ChanNew: %v", err)
	}
	if got := ch.Type(); got != ChanNone {
		t.Fatalf("new channel type = %v, want ChanNone", got)
	}
	if !ch.casType(ChanReal) {
		t.Fatalf("first casType should succeed")
	}
	if ch.casType(ChanSigned) {
		t.Fatalf("second casType should not override an installed type")
	}
	if got := ch.Type(); got != ChanReal {
		t.Fatalf("type = %v, want ChanReal (first writer wins)", got)
	}
}

func TestMappingGrowsAcrossManyChannels(t *testing.T) {
	path := tempChannelFile(t)
	set, err := ChansNew(path)
	if err != nil {
		t.Fatalf("ChansNew: %v", err)
	}
	defer set.Close()

	for i := 0; i < 64; i++ {
		name := fmt.Sprintf("channel_%03d", i)
		if _, err := set.ChanNew(name, "", "", 64); err != nil {
			t.Fatalf("ChanNew(%s): %v", name, err)
		}
	}

	found, err := set.ChanFind(".*")
	if err != nil {
		t.Fatalf("ChanFind: %v", err)
	}
	if len(found) != 64 {
		t.Fatalf("ChanFind(.*) found %d channels, want 64", len(found))
	}
}

func TestChansOpenRejectsBadMagic(t *testing.T) {
	path := tempChannelFile(t)
	if err := os.WriteFile(path, make([]byte, shareHeaderSize), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := ChansOpen(path)
	if err != ErrBadMagic {
		t.Fatalf("ChansOpen err = %v, want ErrBadMagic", err)
	}
}
