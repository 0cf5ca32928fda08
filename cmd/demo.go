package cmd

import (
	"crypto/rand"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"chainlog/chain"
	"chainlog/config"
	"chainlog/events"
	"chainlog/exception"
	"chainlog/integrity"
	"chainlog/jsonx"
	"chainlog/logx"
	"chainlog/monitoring"
	"chainlog/peersync"
	"chainlog/store"
	"chainlog/types"
	"chainlog/utils"
)

var (
	demoChainID     string
	demoMessages    int
	demoMetricsAddr string
	demoSyncConfig  string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run two in-process peers and sync them",
	Long:  "Creates two chain managers over in-memory storage, appends messages on the first and drives the sync protocol until the second converges.",
	Run: func(cmd *cobra.Command, args []string) {
		runDemo()
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVar(&demoChainID, "chain", "demo-room", "Chain id to use")
	demoCmd.Flags().IntVar(&demoMessages, "messages", 120, "Number of messages peer A authors")
	demoCmd.Flags().StringVar(&demoMetricsAddr, "metrics", "", "Serve prometheus metrics on this address")
	demoCmd.Flags().StringVar(&demoSyncConfig, "sync-config", "", "Path to a sync tuning .ini file")
}

type demoMessage struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	SentAt int64  `json:"sent_at"`
}

func runDemo() {
	if demoMetricsAddr != "" {
		exception.SafeGo("metrics", func() {
			monitoring.ServeMetrics(demoMetricsAddr)
		})
	}

	syncCfg := config.DefaultSyncConfig()
	if demoSyncConfig != "" {
		loaded, err := config.LoadSyncConfig(demoSyncConfig)
		if err != nil {
			log.Fatalf("Failed to load sync config: %v", err)
		}
		syncCfg = loaded
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("Failed to generate room secret: %v", err)
	}
	key, err := integrity.DeriveChainKey(secret, demoChainID)
	if err != nil {
		log.Fatalf("Failed to derive chain key: %v", err)
	}

	bus := events.NewEventBus()
	_, eventCh := bus.Subscribe()
	exception.SafeGo("event-drain", func() {
		for ev := range eventCh {
			logx.Debug("DEMO", fmt.Sprintf("event %s on %s", ev.Type(), ev.ChainID()))
		}
	})

	peerA := chain.NewManager(chain.ManagerConfig{
		ChainID: demoChainID, SelfID: "peer-a", SigningKey: key, ChunkSize: syncCfg.ChunkSize,
	}, store.NewMemoryAdapter(), bus)
	peerB := chain.NewManager(chain.ManagerConfig{
		ChainID: demoChainID, SelfID: "peer-b", SigningKey: key, ChunkSize: syncCfg.ChunkSize,
	}, store.NewMemoryAdapter(), bus)

	if err := peerA.Initialize(); err != nil {
		log.Fatalf("Failed to initialize peer A: %v", err)
	}
	if err := peerB.Initialize(); err != nil {
		log.Fatalf("Failed to initialize peer B: %v", err)
	}

	for i := 0; i < demoMessages; i++ {
		payload, err := jsonx.Marshal(demoMessage{
			Author: "peer-a",
			Text:   fmt.Sprintf("message %d", i),
			SentAt: utils.NowMillis(),
		})
		if err != nil {
			log.Fatalf("Failed to encode message: %v", err)
		}
		if _, err := peerA.AddBlock(payload); err != nil {
			log.Fatalf("Failed to append message %d: %v", i, err)
		}
	}

	tracker := peersync.NewPeerTracker()
	tracker.UpdatePeer(types.PeerInfo{
		PeerID:      "peer-a",
		DisplayName: "Peer A",
		BlockRange:  types.BlockRange{Start: 0, End: peerA.GetChainState().LatestBlock},
	})

	sm := peersync.NewSyncManager(peersync.ConfigFrom(syncCfg))
	source := tracker.FindBestSyncPeer(peerB.GetChainState().LatestBlock)
	if source == nil {
		log.Fatalf("No sync source available")
	}
	if err := sm.StartSync(source.PeerID); err != nil {
		log.Fatalf("Failed to start sync: %v", err)
	}

	for {
		state := peerB.GetChainState()
		req := peersync.NewSyncRequest(demoChainID, "peer-b", state.LatestBlock, utils.NowMillis())
		resp, err := peersync.BuildResponse(req, peerA, "peer-a", syncCfg.BatchSize)
		if err != nil {
			sm.FailSync(err.Error())
			log.Fatalf("Failed to build sync response: %v", err)
		}
		if !peersync.VerifySyncResponse(resp) {
			sm.FailSync("batch hash mismatch")
			log.Fatalf("Sync response failed verification")
		}
		result, err := peerB.ImportBlocks(resp.Blocks)
		if err != nil {
			sm.FailSync(err.Error())
			log.Fatalf("Failed to import batch: %v", err)
		}
		sm.RecordBlocksReceived(len(result.Accepted))
		for _, b := range result.Accepted {
			if err := peerA.ConfirmBlock(b.BlockHash, "peer-b"); err != nil {
				logx.Warn("DEMO", "Failed to confirm block: ", err)
			}
		}
		if !resp.HasMore {
			break
		}
	}
	sm.CompleteSync()

	infoA := peerA.GetIntegrityInfo(tracker.OnlineCount())
	infoB := peerB.GetIntegrityInfo(tracker.OnlineCount())
	fmt.Printf("peer-a: latest=%d score=%d (%s)\n", peerA.GetChainState().LatestBlock, infoA.Score, infoA.Status)
	fmt.Printf("peer-b: latest=%d score=%d (%s) gaps=%d\n", peerB.GetChainState().LatestBlock, infoB.Score, infoB.Status, len(peerB.GetChainState().Gaps))

	if err := peerA.Destroy(); err != nil {
		logx.Warn("DEMO", "Failed to destroy peer A: ", err)
	}
	if err := peerB.Destroy(); err != nil {
		logx.Warn("DEMO", "Failed to destroy peer B: ", err)
	}
}
