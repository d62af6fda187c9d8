package sys

// --- Message Constants ---

const (
	// --- Infrastructure & Lifecycle ---
	MsgConfigFailedToLoad      = "Failed to load config: %v"
	MsgConfigMissingToken      = "DISCORD_TOKEN is not set in .env file"
	MsgConfigInvalidGuildID    = "invalid GUILD_ID: must be a valid Snowflake"
	MsgConfigInvalidIdle       = "invalid IDLE_TIMEOUT %q: %v"
	MsgConfigInvalidThreshold  = "SKIP_VOTE_THRESHOLD must be at least 1, got %d"
	MsgDatabaseInitSuccess     = "Database initialized successfully"
	MsgDatabaseTableError      = "Failed to create table: %w"
	MsgDatabasePragmaError     = "Failed to set pragma %s: %w"
	MsgDaemonStarting          = "Starting..."
	MsgBotStarting             = "Starting %s..."
	MsgBotLogFile              = "Writing logs to %s"
	MsgBotReady                = "%s is ready! (ID: %s) (PID: %d) (Took: %dms)"
	MsgBotShutdown             = "Shutting down %s..."
	MsgBotKillingOld           = "Killing running instance... (PID: %d)"
	MsgBotOldTerminated        = "Old instance terminated."
	MsgBotRegisterFail         = "Command registration failed: %v"
	MsgGenericError            = "%v"
	MsgMetricsListening        = "Serving metrics on %s"
	MsgMetricsServeFail        = "Metrics server stopped: %v"
	MsgHistoryRecordFail       = "Failed to record play history for guild %s: %v"
	MsgSettingsLoadFail        = "Failed to load settings for guild %s: %v"
	MsgSettingsSaveFail        = "Failed to save settings for guild %s: %v"
	MsgLoaderSyncCommands      = "Syncing %s commands..."
	MsgLoaderUpToDate          = "Commands are up to date. (Hash: %s)"
	MsgLoaderDevStarting       = "[DEV] Registering commands to guild: %s"
	MsgLoaderDevRegistered     = "[DEV] Registered: %s"
	MsgLoaderDevFail           = "[DEV] Registration failed: %v"
	MsgLoaderProdStarting      = "[PROD] Registering commands globally..."
	MsgLoaderProdRegistered    = "[PROD] Registered: %s"
	MsgLoaderProdFail          = "[PROD] Global registration failed: %w"
	MsgLoaderCleanup           = "[CLEANUP] Removing commands from previous dev guild: %s"
	MsgLoaderPanicRecovered    = "Panic recovered in handler: %v"
	MsgVoiceSessionCreated     = "Session created for guild %s"
	MsgVoiceSessionEnded       = "Session ended for guild %s (%s)"
	MsgVoiceJoining            = "Joining channel %s in guild %s"
	MsgVoiceMoving             = "Moving from %s to %s in guild %s"
	MsgVoiceJoinFail           = "Failed to connect to voice in guild %s: %v"
	MsgVoiceQueued             = "Queued in guild %s at position %d: %s"
	MsgVoicePlaying            = "Playing track in guild %s: %s (%s)"
	MsgVoiceFinished           = "Playback finished in guild %s: %s"
	MsgVoiceLooping            = "Looping track in guild %s: %s"
	MsgVoicePlaybackError      = "Playback error in guild %s on %s: %v"
	MsgVoiceIdle               = "Idle for %v in guild %s, disconnecting"
	MsgVoiceSkip               = "Skipping track in guild %s: %s"
	MsgVoiceExternalDisconnect = "Bot disconnected by external event in guild %s"
	MsgVoiceShutdown           = "Shutting down %d voice session(s)..."
	MsgMediaResolving          = "Resolving %q"
	MsgMediaResolved           = "Resolved %q to %s (took %v)"
	MsgMediaResolveFail        = "Failed to resolve %q: %v"
	MsgCommandInvoked          = "User %s (%s) ran /music %s in guild %s"

	// --- User facing ---
	ErrNotInGuild         = "This command can only be used in a server."
	ErrUserNotInVoice     = "You are not connected to a voice channel."
	ErrBotNotConnected    = "Not connected to a voice channel."
	ErrNothingPlaying     = "Nothing is playing right now."
	ErrJoinFailed         = "Could not join your voice channel."
	ErrResolveFailed      = "Could not load that track. Check the URL and try again."
	ErrInvalidQueuePage   = "Page %d does not exist. The queue has %d page(s)."
	ErrInvalidQueueIndex  = "There is no track at position %d. The queue has %d track(s)."
	ErrSessionClosed      = "The player was shutting down. Please try again."
	ErrHistoryUnavailable = "Play history is unavailable right now."
	ErrEmptyQuery         = "Tell me what to play."
	ErrUnexpected         = "Something went wrong: %v"
	MsgNowPlayingTitle    = "Now playing:"
	MsgQueuedTitle        = "Added to queue:"
	MsgQueuedFooter       = "Position %d in queue · requested by %s"
	MsgJoined             = "Joined <#%s>."
	MsgPaused             = "⏸️ Paused."
	MsgResumed            = "▶️ Resumed."
	MsgSkipped            = "⏭️ Skipped **%s**."
	MsgSkipAlreadyVoted   = "You already voted to skip. (%d/%d votes)"
	MsgSkipVoteAdded      = "Skip vote added. (%d/%d votes)"
	MsgRemoved            = "Removed **%s** from the queue."
	MsgShuffled           = "🔀 Shuffled %d track(s)."
	MsgLoopEnabled        = "🔁 Looping the current track."
	MsgLoopDisabled       = "Loop disabled."
	MsgVolumeChanged      = "Changed volume to %d%%"
	MsgVolumeCurrent      = "🔊 Volume is %d%%"
	MsgStopped            = "🛑 Stopped and disconnected."
	MsgLeft               = "👋 Disconnected."
	MsgIdleLeft           = "Left the voice channel after %v of inactivity."
	MsgPlaybackFailed     = "⚠️ Could not play **%s**, moving on."
	MsgQueueEmpty         = "_Empty_"
	MsgQueueHeader        = "**Queue** (page %d/%d, %d track(s))\n"
	MsgQueueItem          = "`%d.` [%s](%s) · %s\n"
	MsgQueueNowPlaying    = "▶️ **Now Playing:** [%s](%s)\n\n"
	MsgQueueLoop          = "\n🔁 **Loop:** Enabled"
	MsgQueueVolume        = "\n🔊 **Volume:** %d%%"
	MsgHistoryHeader      = "**Recently played**\n"
	MsgHistoryItem        = "`%d.` [%s](%s) · <t:%d:R>\n"
	MsgHistoryEmpty       = "Nothing has been played here yet."
	MsgLoungeTitle        = "JamendoLounge"
	MsgNowPlayingFooter   = "Requested by %s · %s"
	MsgAboutTitle         = "About %s"
	MsgAboutDescription   = "A music bot that plays from YouTube and other sites into your voice channel.\nUse `/music play` to get started and `/help` for the full command list."
	MsgHelpTitle          = "Commands"
	MsgHelpItem           = "`/%s` · %s\n"
)
